package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/udisondev/buildplanner/internal/db/migrations"
)

// Migrate brings the builds schema up to date through a database/sql
// handle over the pool. It returns the versions it applied.
func (d *DB) Migrate(ctx context.Context) ([]int64, error) {
	sqlDB := stdlib.OpenDBFromPool(d.pool)
	defer sqlDB.Close()

	applied, err := migrations.Up(ctx, sqlDB)
	if err != nil {
		return nil, fmt.Errorf("migrating build store: %w", err)
	}
	if len(applied) > 0 {
		slog.Info("build store migrated", "versions", applied)
	} else {
		slog.Debug("build store schema up to date")
	}
	return applied, nil
}
