package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
)

const importLineColumns = `id, batch_id, row_number, raw_date, raw_description, raw_amount, raw_currency,
	parsed, parse_error, date, amount_minor, currency, vendor_guess, category_guess, confidence,
	duplicate_of, vendor_override, category_override, ignored, note`

// InsertImportBatch stores a new batch in DRAFT unless a status is already set.
func (s *store) InsertImportBatch(ctx context.Context, b *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(b); err != nil {
		return err
	}
	if b.Status == "" {
		b.Status = model.BatchStatusDraft
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO import_batches (id, type, filename, content, status, row_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, string(b.Type), b.Filename, b.Content, string(b.Status), b.RowCount,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: batch %s", common.ErrDuplicateEntry, b.ID)
		}
		return fmt.Errorf("failed to insert import batch: %w", err)
	}
	return nil
}

// GetImportBatch retrieves a batch by id.
func (s *store) GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "batch id"); err != nil {
		return nil, err
	}

	var b model.ImportBatch
	var batchType, status string
	var filename sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, type, filename, content, status, row_count, created_at, updated_at
		FROM import_batches
		WHERE id = ?
	`, id).Scan(&b.ID, &batchType, &filename, &b.Content, &status, &b.RowCount, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}

	b.Type = model.BatchType(batchType)
	b.Status = model.BatchStatus(status)
	b.Filename = filename.String
	return &b, nil
}

// UpdateImportBatchStatus moves a batch forward and records its row count.
// Backwards or skipping transitions return common.ErrInvalidBatchState.
func (s *store) UpdateImportBatchStatus(ctx context.Context, id string, status model.BatchStatus, rowCount int) error {
	batch, err := s.GetImportBatch(ctx, id)
	if err != nil {
		return err
	}
	if !batch.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidBatchState, batch.Status, status)
	}

	_, err = s.q.ExecContext(ctx, `
		UPDATE import_batches
		SET status = ?, row_count = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(status), rowCount, time.Now().UTC(), id, string(batch.Status))
	if err != nil {
		return fmt.Errorf("failed to update import batch: %w", err)
	}
	return nil
}

// InsertImportLine stores a parsed (or unparseable) row.
func (s *store) InsertImportLine(ctx context.Context, l *model.ImportLine) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLine(l); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO import_lines (`+importLineColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.BatchID, l.RowNumber, l.RawDate, l.RawDescription, l.RawAmount, l.RawCurrency,
		l.Parsed, l.ParseError, lineDate(l.Date), l.AmountMinor, l.Currency,
		nullInt64(l.VendorGuess), nullInt64(l.CategoryGuess), l.Confidence,
		nullString(l.DuplicateOf), nullInt64(l.VendorOverride), nullInt64(l.CategoryOverride),
		l.Ignored, l.Note)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: line %s", common.ErrDuplicateEntry, l.ID)
		}
		return fmt.Errorf("failed to insert import line: %w", err)
	}
	return nil
}

// GetImportLine retrieves one line by id.
func (s *store) GetImportLine(ctx context.Context, id string) (*model.ImportLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "line id"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+importLineColumns+` FROM import_lines WHERE id = ?`, id)
	l, err := scanImportLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("line %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import line: %w", err)
	}
	return l, nil
}

// ListImportLines returns the lines of a batch in upload order.
func (s *store) ListImportLines(ctx context.Context, batchID string) ([]model.ImportLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+importLineColumns+`
		FROM import_lines
		WHERE batch_id = ?
		ORDER BY row_number
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query import lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []model.ImportLine
	for rows.Next() {
		l, err := scanImportLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import line: %w", err)
		}
		lines = append(lines, *l)
	}

	return lines, rows.Err()
}

// UpdateImportLine saves the reviewer-controlled fields of a line.
func (s *store) UpdateImportLine(ctx context.Context, l *model.ImportLine) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLine(l); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE import_lines
		SET vendor_override = ?, category_override = ?, ignored = ?, note = ?,
			vendor_guess = ?, category_guess = ?, confidence = ?, duplicate_of = ?
		WHERE id = ?
	`, nullInt64(l.VendorOverride), nullInt64(l.CategoryOverride), l.Ignored, l.Note,
		nullInt64(l.VendorGuess), nullInt64(l.CategoryGuess), l.Confidence, nullString(l.DuplicateOf),
		l.ID)
	if err != nil {
		return fmt.Errorf("failed to update import line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("line %s: %w", l.ID, common.ErrNotFound)
	}
	return nil
}

func lineDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func scanImportLine(sc scanner) (*model.ImportLine, error) {
	var l model.ImportLine
	var rawDate, rawDescription, rawAmount, rawCurrency, parseError, currency, note sql.NullString
	var date, duplicateOf sql.NullString
	var vendorGuess, categoryGuess, vendorOverride, categoryOverride sql.NullInt64

	err := sc.Scan(&l.ID, &l.BatchID, &l.RowNumber, &rawDate, &rawDescription, &rawAmount, &rawCurrency,
		&l.Parsed, &parseError, &date, &l.AmountMinor, &currency, &vendorGuess, &categoryGuess, &l.Confidence,
		&duplicateOf, &vendorOverride, &categoryOverride, &l.Ignored, &note)
	if err != nil {
		return nil, err
	}

	l.RawDate = rawDate.String
	l.RawDescription = rawDescription.String
	l.RawAmount = rawAmount.String
	l.RawCurrency = rawCurrency.String
	l.ParseError = parseError.String
	l.Currency = currency.String
	l.Note = note.String
	l.VendorGuess = int64Ptr(vendorGuess)
	l.CategoryGuess = int64Ptr(categoryGuess)
	l.VendorOverride = int64Ptr(vendorOverride)
	l.CategoryOverride = int64Ptr(categoryOverride)
	l.DuplicateOf = stringPtr(duplicateOf)

	if date.Valid && date.String != "" {
		if l.Date, err = time.Parse(dateLayout, date.String); err != nil {
			return nil, fmt.Errorf("invalid line date %q: %w", date.String, err)
		}
	}
	return &l, nil
}
