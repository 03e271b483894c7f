package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
)

const dateLayout = "2006-01-02"

const receiptColumns = `id, external_id, receipt_number, receipt_type, created_at, shift_date,
	total_money, total_discount, payment_method, employee_id, customer_id, line_items`

// FindReceiptByExternalID looks up a receipt by its upstream id.
func (s *store) FindReceiptByExternalID(ctx context.Context, externalID string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE external_id = ?`, externalID)

	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return r, nil
}

// InsertReceipt stores a new receipt. Receipts are never updated.
func (s *store) InsertReceipt(ctx context.Context, r *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(r); err != nil {
		return err
	}

	items, err := json.Marshal(r.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO receipts (
			external_id, receipt_number, receipt_type, created_at, shift_date,
			total_money, total_discount, payment_method, employee_id, customer_id, line_items
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ExternalID, r.ReceiptNumber, string(r.Type), r.CreatedAt.UTC(), r.ShiftDate.Format(dateLayout),
		r.TotalMoney, r.TotalDiscount, r.PaymentMethod, r.EmployeeID, r.CustomerID, string(items),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: receipt %s", common.ErrDuplicateEntry, r.ExternalID)
		}
		return fmt.Errorf("failed to insert receipt %s: %w", r.ExternalID, err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		r.ID = id
	}
	return nil
}

// CountReceipts returns the number of stored receipts.
func (s *store) CountReceipts(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return count, nil
}

// ListReceiptsByShift returns the receipts assigned to a shift date in time order.
func (s *store) ListReceiptsByShift(ctx context.Context, shiftDate time.Time) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE shift_date = ? ORDER BY created_at, id`,
		shiftDate.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, *r)
	}

	return receipts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(sc scanner) (*model.Receipt, error) {
	var r model.Receipt
	var number, rtype, payment, employee, customer, items sql.NullString
	var shiftDate string

	err := sc.Scan(
		&r.ID, &r.ExternalID, &number, &rtype, &r.CreatedAt, &shiftDate,
		&r.TotalMoney, &r.TotalDiscount, &payment, &employee, &customer, &items,
	)
	if err != nil {
		return nil, err
	}

	r.ReceiptNumber = number.String
	r.Type = model.ReceiptType(rtype.String)
	r.PaymentMethod = payment.String
	r.EmployeeID = employee.String
	r.CustomerID = customer.String

	if r.ShiftDate, err = time.Parse(dateLayout, shiftDate); err != nil {
		return nil, fmt.Errorf("invalid shift date %q: %w", shiftDate, err)
	}

	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &r.LineItems); err != nil {
			return nil, fmt.Errorf("invalid line items: %w", err)
		}
	}

	return &r, nil
}
