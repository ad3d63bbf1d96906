package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tropicaldog17/folio/internal/config"
	"github.com/tropicaldog17/folio/internal/db"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "applies or rolls back database migrations" }
func (*migrateCmd) Usage() string {
	return `folioctl migrate up|down|version

  Runs the SQL migrations in $MIGRATIONS_PATH against $STORE_DATABASE_URL.
  "down" rolls back a single step.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: one of up, down or version is required.")
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	url, path := cfg.Store.DatabaseURL, cfg.Store.MigrationsPath

	switch f.Arg(0) {
	case "up":
		err = db.RunMigrations(url, path)
	case "down":
		err = db.RollbackMigrations(url, path)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = db.MigrationVersion(url, path)
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
