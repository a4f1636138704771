package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					budget INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, name)
				)`,

				`CREATE TABLE IF NOT EXISTS budget_overrides (
					user_id TEXT NOT NULL,
					category TEXT NOT NULL,
					month DATE NOT NULL,
					budget INTEGER NOT NULL,
					UNIQUE(user_id, category, month)
				)`,
				`CREATE INDEX idx_budget_overrides_category ON budget_overrides(user_id, category)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					category TEXT,
					detail TEXT NOT NULL,
					amount INTEGER NOT NULL
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_category ON transactions(user_id, category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index orphaned transactions for the reclassification sweep",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_transactions_orphaned
				ON transactions(user_id) WHERE category IS NULL
			`)
			return err
		},
	},
}

// Migrate applies all pending migrations to the database.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_versions (version) VALUES (?)`, m.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		}); err != nil {
			return err
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
