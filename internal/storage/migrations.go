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

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL,
					name TEXT NOT NULL,
					selling_price INTEGER NOT NULL CHECK (selling_price >= 0),
					is_price_locked INTEGER NOT NULL DEFAULT 0,
					price_lock_reason TEXT NOT NULL DEFAULT '',
					price_filter_min_pct REAL,
					price_filter_max_pct REAL,
					model_code TEXT NOT NULL DEFAULT '',
					spec_keywords TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_products_account ON products(account_id)`,

				`CREATE TABLE IF NOT EXISTS keywords (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
					text TEXT NOT NULL COLLATE NOCASE,
					last_crawled_at DATETIME,
					created_at DATETIME NOT NULL,
					UNIQUE (product_id, text)
				)`,

				`CREATE TABLE IF NOT EXISTS listings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
					exposure_rank INTEGER NOT NULL CHECK (exposure_rank >= 1),
					external_product_id TEXT,
					seller_name TEXT NOT NULL,
					title TEXT NOT NULL DEFAULT '',
					item_price INTEGER NOT NULL,
					shipping_fee INTEGER NOT NULL DEFAULT 0,
					shipping_fee_type TEXT NOT NULL,
					is_own_listing INTEGER NOT NULL DEFAULT 0
				)`,

				`CREATE TABLE IF NOT EXISTS overrides (
					kind TEXT NOT NULL CHECK (kind IN ('exclusion', 'inclusion', 'shipping')),
					product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
					listing_key TEXT NOT NULL,
					shipping_fee INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					PRIMARY KEY (kind, product_id, listing_key)
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Track crawl run ids and override notes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE keywords ADD COLUMN last_run_id TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE overrides ADD COLUMN note TEXT NOT NULL DEFAULT ''`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add listing and override lookup indexes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_listings_keyword ON listings(keyword_id, exposure_rank)`,
				`CREATE INDEX IF NOT EXISTS idx_overrides_product ON overrides(product_id)`,
			)
		},
	},
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

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
