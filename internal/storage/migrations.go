package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

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
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS analyses (
					id TEXT PRIMARY KEY,
					analyzed_at DATETIME NOT NULL,
					source TEXT,
					extracted_text TEXT NOT NULL,
					verdict TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					reasoning TEXT NOT NULL,
					probabilities TEXT NOT NULL DEFAULT '{}',
					amount TEXT,
					transaction_type TEXT,
					recipient TEXT,
					upi_id TEXT,
					account_number TEXT,
					transaction_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_analyses_analyzed_at ON analyses(analyzed_at)`,
				`CREATE INDEX idx_analyses_verdict ON analyses(verdict)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Store red flags with each analysis",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE analyses ADD COLUMN red_flags TEXT NOT NULL DEFAULT '[]'`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add link check history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS link_checks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					checked_at DATETIME NOT NULL,
					url TEXT NOT NULL,
					is_suspicious BOOLEAN NOT NULL DEFAULT 0,
					safety_score REAL NOT NULL,
					issues TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE INDEX idx_link_checks_url ON link_checks(url)`,
				`CREATE INDEX idx_link_checks_checked_at ON link_checks(checked_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
