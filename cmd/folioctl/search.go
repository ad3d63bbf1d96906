package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type searchCmd struct {
	bySymbol bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches the coin catalog" }
func (*searchCmd) Usage() string {
	return `folioctl search [-symbol] <search term>

  Searches coins by name or symbol. With -symbol, resolves the single coin for
  an exact ticker symbol instead.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.bySymbol, "symbol", false, "Resolve one coin by exact ticker symbol")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	a, err := openApp(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.bySymbol {
		coin, err := a.Quotes.FindBySymbol(ctx, term)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error looking up symbol: %v\n", err)
			return subcommands.ExitFailure
		}
		if coin == nil {
			fmt.Printf("No coin with symbol '%s'.\n", term)
			return subcommands.ExitSuccess
		}
		fmt.Printf("%s\t%s\t%s\n", coin.ID, strings.ToUpper(coin.Symbol), coin.Name)
		return subcommands.ExitSuccess
	}

	results := a.Quotes.SearchCoins(ctx, term)
	if len(results) == 0 {
		fmt.Printf("No results found for '%s'.\n", term)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Found %d results for '%s':\n\n", len(results), term)
	for _, r := range results {
		fmt.Printf("  %-24s %-8s %s\n", r.ID, strings.ToUpper(r.Symbol), r.Name)
	}
	return subcommands.ExitSuccess
}
