package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/docident/docident/config"
	"github.com/docident/docident/docstore"
)

// docident-setup connects to the configured postgres instance and ensures
// the document tables and uniqueness indexes exist. Run it once per
// environment, or on every deploy; the schema statements are idempotent.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := docstore.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("identity document schema ready",
		slog.String("database", cfg.Database.Name),
	)
}
