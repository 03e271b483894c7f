package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
)

const expenseColumns = `id, date, description, amount_minor, currency, source,
	vendor_id, category_id, batch_id, line_id, note, created_at`

// FindExpenseCandidates returns expenses inside both the amount and date ranges.
// Dates are compared at day granularity.
func (s *store) FindExpenseCandidates(ctx context.Context, amounts service.AmountRange, dates service.DateRange) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	start, end := dates.Start.Format(dateLayout), dates.End.Format(dateLayout)
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	return s.queryExpenses(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE amount_minor BETWEEN ? AND ?
		  AND date BETWEEN ? AND ?
		ORDER BY date, created_at
	`, amounts.Min, amounts.Max, start, end)
}

// ListExpensesByDate returns the expenses recorded for the given days.
func (s *store) ListExpensesByDate(ctx context.Context, dates service.DateRange) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	start, end := dates.Start.Format(dateLayout), dates.End.Format(dateLayout)
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	return s.queryExpenses(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE date BETWEEN ? AND ?
		ORDER BY date, created_at
	`, start, end)
}

// InsertExpense stores a committed expense.
func (s *store) InsertExpense(ctx context.Context, e *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(e); err != nil {
		return err
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidExpense)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Date.Format(dateLayout), e.Description, e.AmountMinor, e.Currency, string(e.Source),
		nullInt64(e.VendorID), nullInt64(e.CategoryID), nullString(e.BatchID), nullString(e.LineID),
		e.Note, e.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s", common.ErrDuplicateEntry, e.ID)
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *store) queryExpenses(ctx context.Context, query string, args ...any) ([]model.Expense, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		var e model.Expense
		var date, source string
		var vendorID, categoryID sql.NullInt64
		var batchID, lineID, note sql.NullString

		if err := rows.Scan(
			&e.ID, &date, &e.Description, &e.AmountMinor, &e.Currency, &source,
			&vendorID, &categoryID, &batchID, &lineID, &note, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		if e.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid expense date %q: %w", date, err)
		}
		e.Source = model.ExpenseSource(source)
		e.VendorID = int64Ptr(vendorID)
		e.CategoryID = int64Ptr(categoryID)
		e.BatchID = stringPtr(batchID)
		e.LineID = stringPtr(lineID)
		e.Note = note.String

		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
