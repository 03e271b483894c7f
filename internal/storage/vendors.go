package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
)

// ListVendors retrieves all vendors ordered by name.
func (s *store) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, default_category_id, created_at
		FROM vendors
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}

	return vendors, rows.Err()
}

// GetVendor retrieves a vendor by id.
func (s *store) GetVendor(ctx context.Context, id int64) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, default_category_id, created_at
		FROM vendors
		WHERE id = ?
	`, id)

	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vendor %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return v, nil
}

// CreateVendor inserts a vendor and sets its ID.
func (s *store) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendor(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO vendors (name, default_category_id, created_at)
		VALUES (?, ?, ?)
	`, strings.TrimSpace(v.Name), nullInt64(v.DefaultCategoryID), v.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: vendor %q", common.ErrDuplicateEntry, v.Name)
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get vendor id: %w", err)
	}
	v.ID = id
	return nil
}

// UpdateVendorDefaultCategory sets the category suggested for a vendor.
func (s *store) UpdateVendorDefaultCategory(ctx context.Context, vendorID, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE vendors SET default_category_id = ? WHERE id = ?
	`, categoryID, vendorID)
	if err != nil {
		return fmt.Errorf("failed to update vendor category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vendor %d: %w", vendorID, common.ErrNotFound)
	}
	return nil
}

// ListVendorAliases retrieves every alias.
func (s *store) ListVendorAliases(ctx context.Context) ([]model.VendorAlias, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, vendor_id, alias, created_at
		FROM vendor_aliases
		ORDER BY vendor_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor aliases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var aliases []model.VendorAlias
	for rows.Next() {
		var a model.VendorAlias
		if err := rows.Scan(&a.ID, &a.VendorID, &a.Alias, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor alias: %w", err)
		}
		aliases = append(aliases, a)
	}

	return aliases, rows.Err()
}

// InsertVendorAlias appends an alias for a vendor.
func (s *store) InsertVendorAlias(ctx context.Context, a *model.VendorAlias) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: alias", ErrNilParameter)
	}
	if err := validateString(a.Alias, "alias"); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO vendor_aliases (vendor_id, alias, created_at)
		VALUES (?, ?, ?)
	`, a.VendorID, a.Alias, a.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alias %q", common.ErrDuplicateEntry, a.Alias)
		}
		return fmt.Errorf("failed to insert vendor alias: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alias id: %w", err)
	}
	a.ID = id
	return nil
}

func scanVendor(sc scanner) (*model.Vendor, error) {
	var v model.Vendor
	var categoryID sql.NullInt64

	if err := sc.Scan(&v.ID, &v.Name, &categoryID, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.DefaultCategoryID = int64Ptr(categoryID)
	return &v, nil
}
