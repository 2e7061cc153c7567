package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/database"
)

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or drop the deal store schema" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate [-down]

  Applies the schema of the database selected by DB_DRIVER and DATABASE_URL.
  With -down every table is dropped, deals included.
`
}

func (m *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.down, "down", false, "Drop all tables instead of creating them.")
}

func (m *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, db, log, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if m.down {
		err = database.Drop(ctx, db, log)
	} else {
		err = database.Migrate(ctx, db, cfg.DBDriver, log)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
