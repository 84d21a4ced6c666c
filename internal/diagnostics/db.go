package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"events-portal/internal/models"
)

// DB persists the diagnostic log: one row per failed backend call.
type DB struct {
	Bun *bun.DB
}

// Open connects to PostgreSQL for postgres:// DSNs and to SQLite otherwise.
func Open(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
		}
		if err := sqldb.Ping(); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.Diagnostic)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics table: %w", err)
	}
	return nil
}

func (d *DB) Record(ctx context.Context, entry models.Diagnostic) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

// Recent returns the newest entries first.
func (d *DB) Recent(ctx context.Context, limit int) ([]models.Diagnostic, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.Diagnostic
	err := d.Bun.NewSelect().
		Model(&entries).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *DB) CountByOperation(ctx context.Context, operation string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Diagnostic)(nil)).
		Where("operation = ?", operation).
		Count(ctx)
}
