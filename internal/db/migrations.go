package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

// Migration represents a single database migration
// Each migration should have a unique ID and an Up function
// that applies the migration.
type Migration struct {
	ID   int
	Name string
	Up   func(ctx context.Context, tx *sql.Tx) error
}

func execMigration(statements ...string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range statements {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// migrations is a slice of all migrations to be applied in order. Each is applied once,
// inside a transaction, and must be valid for both SQLite and PostgreSQL.
var migrations = []Migration{
	{
		ID:   1,
		Name: "case-insensitive search indexes",
		Up: execMigration(
			`CREATE INDEX IF NOT EXISTS idx_loans_customer_lower ON loans (LOWER(customer_name))`,
			`CREATE INDEX IF NOT EXISTS idx_loans_servicer_lower ON loans (LOWER(servicer_name))`,
		),
	},
	{
		ID:   2,
		Name: "maturity date index",
		Up: execMigration(
			`CREATE INDEX IF NOT EXISTS idx_loans_maturity_date ON loans(maturity_date)`,
		),
	},
}

// ApplyMigrations applies all pending migrations to the database.
func ApplyMigrations(ctx context.Context, db *sql.DB, d dialect, logger *log.Logger) error {
	// Ensure the migrations table exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	// Apply pending migrations
	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		logger.Info("Applying migration", "id", m.ID, "name", m.Name)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.ID, err)
		}
		if err := m.Up(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, d.rebind(`INSERT INTO migrations (id) VALUES (?)`), m.ID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.ID, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.ID, err)
		}
	}

	return nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}
