// Command migrate applies the embedded goose migrations.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"

	"github.com/delordemm1/realestate-api/internal/config"
	"github.com/delordemm1/realestate-api/migrations"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		logger.Error("missing goose command", "usage", "migrate [up|down|status|redo|version]")
		os.Exit(2)
	}
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	logger.Info("running goose", "command", args[0])
	return goose.RunContext(ctx, args[0], db, ".", args[1:]...)
}
