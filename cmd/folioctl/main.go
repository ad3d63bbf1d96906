// Command folioctl runs the portfolio and project flows from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&portfolioCmd{}, "store")
	commander.Register(&statsCmd{}, "store")
	commander.Register(&migrateCmd{}, "store")
	commander.Register(&searchCmd{}, "quotes")
	commander.Register(&chartCmd{}, "quotes")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
