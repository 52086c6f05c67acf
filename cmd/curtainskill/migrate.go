package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/curtain-skill/internal/infrastructure/config"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/database"
)

// runMigrate manages the registry schema without starting the skill:
//
//	curtainskill migrate status
//	curtainskill migrate up
//	curtainskill migrate down   # rolls back the latest migration
func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: curtainskill migrate status|up|down")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Process exits right after

	switch args[0] {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	case "down":
		if err := db.MigrateDown(ctx); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
	case "status":
	default:
		return fmt.Errorf("unknown migrate command %q, want status, up or down", args[0])
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	for _, m := range applied {
		fmt.Fprintf(out, "applied  %s  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name)
	}
	return nil
}
