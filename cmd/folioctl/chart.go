package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type chartCmd struct {
	days     int
	currency string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "prints historical prices for a coin" }
func (*chartCmd) Usage() string {
	return `folioctl chart [-days N] [-currency usd] <coin id>

  Prints the market chart of a coin as timestamp/price pairs.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "Days of history")
	f.StringVar(&c.currency, "currency", "usd", "Quote currency")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one coin id is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	points, err := a.Quotes.FetchHistoricalChart(ctx, f.Arg(0), c.days, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching chart: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, p := range points {
		fmt.Printf("%s\t%s\n", p.Timestamp.Format("2006-01-02 15:04"), p.Price.StringFixed(2))
	}
	return subcommands.ExitSuccess
}
