package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type portfolioCmd struct {
	creds  signInFlags
	asJSON bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "prints portfolio items valued at live prices" }
func (*portfolioCmd) Usage() string {
	return `folioctl portfolio [-email <email> -password <password>] [-json]

  Loads the portfolio items of the signed-in user (or the public items when
  signed out), merges them with USD spot prices and prints the result.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	c.creds.register(f)
	f.BoolVar(&c.asJSON, "json", false, "Print the snapshot as JSON")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, &c.creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	snap := a.Portfolio.Load(ctx)
	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(snap)
		return subcommands.ExitSuccess
	}

	if snap.Degraded {
		fmt.Fprintf(os.Stderr, "warning: %s\n", snap.Reason)
	}
	if len(snap.Assets) == 0 {
		fmt.Println("No portfolio items.")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tNAME\tQUANTITY\tPRICE\t24H %\tVALUE\t")
	for _, asset := range snap.Assets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			asset.Symbol, asset.Name, asset.Quantity.String(),
			asset.Price.StringFixed(2), asset.Change24h.StringFixed(2), asset.Value.StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t\tTOTAL\t%s\t\n", snap.TotalValue.StringFixed(2))
	w.Flush()
	return subcommands.ExitSuccess
}
