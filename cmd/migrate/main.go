// Command migrate applies the embedded SQL migrations to DATABASE_URL.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/archon-research/lendpool/db/migrations"
	"github.com/archon-research/lendpool/db/migrator"
	"github.com/archon-research/lendpool/internal/adapters/outbound/postgres"
	"github.com/archon-research/lendpool/internal/pkg/env"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		logger.Error("required environment variable not set", "key", "DATABASE_URL")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(connStr))
	if err != nil {
		logger.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := migrator.New(pool, migrations.FS, logger)
	if err := m.ApplyAll(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		pool.Close()
		os.Exit(1)
	}

	applied, err := m.ListApplied(ctx)
	if err != nil {
		logger.Error("listing migrations", "error", err)
		pool.Close()
		os.Exit(1)
	}
	logger.Info("all migrations up to date", "applied", len(applied))
}
