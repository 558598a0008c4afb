package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"sleepsense/adapters/postgres"
	"sleepsense/internal"
	"sleepsense/internal/config"
	"sleepsense/internal/hypothesis"
	"sleepsense/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := internal.DefaultLogger

	var repo *postgres.ConditionRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := postgres.Migrate(context.Background(), db); err != nil {
			return err
		}
		repo = postgres.NewConditionRepository(db)
		log.Info("condition persistence enabled")
	} else {
		log.Info("DATABASE_URL not set, conditions stay in memory")
	}

	registry := hypothesis.NewRegistry(cfg.Analysis)
	app := ui.NewApp(registry, repo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, ui.Config{Port: cfg.Server.Port})
}
