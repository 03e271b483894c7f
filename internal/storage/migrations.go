package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/shiftbook/internal/model"
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

// defaultCategories are seeded once; keyword rules refer to them by code.
var defaultCategories = []model.Category{
	{Code: model.CategoryCodeIngredients, Name: "Ingredients"},
	{Code: model.CategoryCodeBeverages, Name: "Beverages"},
	{Code: model.CategoryCodeUtilities, Name: "Utilities"},
	{Code: model.CategoryCodeRent, Name: "Rent"},
	{Code: model.CategoryCodePayroll, Name: "Payroll"},
	{Code: model.CategoryCodeSupplies, Name: "Supplies"},
	{Code: model.CategoryCodeMaintenance, Name: "Maintenance"},
	{Code: model.CategoryCodeTransport, Name: "Transport"},
	{Code: model.CategoryCodeMarketing, Name: "Marketing"},
	{Code: model.CategoryCodeFees, Name: "Bank & Platform Fees"},
	{Code: model.CategoryCodeOther, Name: "Other"},
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					code TEXT UNIQUE NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS vendors (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					default_category_id INTEGER REFERENCES categories(id),
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS vendor_aliases (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					vendor_id INTEGER NOT NULL REFERENCES vendors(id),
					alias TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					UNIQUE (vendor_id, alias)
				)`,
				`CREATE INDEX idx_vendor_aliases_vendor ON vendor_aliases(vendor_id)`,

				`CREATE TABLE IF NOT EXISTS receipts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					external_id TEXT UNIQUE NOT NULL,
					receipt_number TEXT,
					receipt_type TEXT,
					created_at DATETIME NOT NULL,
					shift_date TEXT NOT NULL,
					total_money INTEGER NOT NULL DEFAULT 0,
					total_discount INTEGER NOT NULL DEFAULT 0,
					payment_method TEXT,
					employee_id TEXT,
					customer_id TEXT,
					line_items TEXT,
					inserted_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_receipts_shift_date ON receipts(shift_date)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id TEXT PRIMARY KEY,
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					amount_minor INTEGER NOT NULL,
					currency TEXT NOT NULL,
					source TEXT NOT NULL,
					vendor_id INTEGER,
					category_id INTEGER,
					batch_id TEXT,
					line_id TEXT,
					note TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_expenses_date_amount ON expenses(date, amount_minor)`,
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
		Description: "Add import batches and lines",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS import_batches (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					filename TEXT,
					content TEXT NOT NULL,
					status TEXT NOT NULL,
					row_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS import_lines (
					id TEXT PRIMARY KEY,
					batch_id TEXT NOT NULL REFERENCES import_batches(id) ON DELETE CASCADE,
					row_number INTEGER NOT NULL,
					raw_date TEXT,
					raw_description TEXT,
					raw_amount TEXT,
					raw_currency TEXT,
					parsed BOOLEAN NOT NULL DEFAULT 0,
					parse_error TEXT,
					date TEXT,
					amount_minor INTEGER NOT NULL DEFAULT 0,
					currency TEXT,
					vendor_guess INTEGER,
					category_guess INTEGER,
					confidence REAL NOT NULL DEFAULT 0,
					duplicate_of TEXT,
					vendor_override INTEGER,
					category_override INTEGER,
					ignored BOOLEAN NOT NULL DEFAULT 0,
					note TEXT
				)`,
				`CREATE INDEX idx_import_lines_batch ON import_lines(batch_id, row_number)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Seed default categories",
		Up: func(tx *sql.Tx) error {
			for _, cat := range defaultCategories {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO categories (name, code) VALUES (?, ?)`,
					cat.Name, cat.Code,
				); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", cat.Code, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
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

		// Update version
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

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
