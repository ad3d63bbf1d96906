package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type statsCmd struct {
	creds signInFlags
	top   int
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "summarizes the signed-in user's projects" }
func (*statsCmd) Usage() string {
	return `folioctl stats -email <email> -password <password> [-top N]

  Prints the project count, the most common domains and the most recently
  added project.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	c.creds.register(f)
	f.IntVar(&c.top, "top", 5, "Number of domains to print")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, &c.creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	stats := a.Stats.Load(ctx)
	if stats.Degraded {
		fmt.Fprintf(os.Stderr, "warning: %s\n", stats.Reason)
	}

	fmt.Printf("Projects: %d\n", stats.TotalCount)
	if len(stats.DomainFrequency) > 0 {
		fmt.Println("Top domains:")
		for i, d := range stats.DomainFrequency {
			if i == c.top {
				break
			}
			fmt.Printf("  %-30s %d\n", d.Domain, d.Count)
		}
	}
	if p := stats.MostRecent; p != nil {
		fmt.Printf("Last added: %s (%s) on %s\n", p.Title, p.URL, p.CreatedAt.Format("2006-01-02"))
	}
	return subcommands.ExitSuccess
}
