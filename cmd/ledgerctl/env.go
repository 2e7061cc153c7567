package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/rs/zerolog"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/config"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/database"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/logger"
)

// openStore loads the tool configuration and connects to the deal store.
func openStore(ctx context.Context) (*config.Config, *sql.DB, zerolog.Logger, error) {
	cfg, err := config.LoadTool()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Pretty: true}, os.Stderr)

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, db, log, nil
}
