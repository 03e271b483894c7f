// Package storage provides the data persistence layer for shiftbook.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/shiftbook/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidReceipt   = errors.New("invalid receipt")
	ErrInvalidExpense   = errors.New("invalid expense")
	ErrInvalidVendor    = errors.New("invalid vendor")
	ErrInvalidBatch     = errors.New("invalid import batch")
	ErrInvalidLine      = errors.New("invalid import line")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateReceipt(r *model.Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: receipt", ErrNilParameter)
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return fmt.Errorf("%w: missing external id", ErrInvalidReceipt)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidReceipt)
	}
	if r.ShiftDate.IsZero() {
		return fmt.Errorf("%w: missing shift date", ErrInvalidReceipt)
	}
	return nil
}

func validateExpense(e *model.Expense) error {
	if e == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExpense)
	}
	if e.AmountMinor < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrInvalidExpense, e.AmountMinor)
	}
	if strings.TrimSpace(e.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidExpense)
	}
	switch e.Source {
	case model.SourceManual, model.SourceImported:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidExpense, e.Source)
	}
	return nil
}

func validateVendor(v *model.Vendor) error {
	if v == nil {
		return fmt.Errorf("%w: vendor", ErrNilParameter)
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVendor)
	}
	return nil
}

func validateBatch(b *model.ImportBatch) error {
	if b == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if b.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBatch)
	}
	switch b.Type {
	case model.BatchTypeCSV, model.BatchTypeOFX:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBatch, b.Type)
	}
	return nil
}

func validateLine(l *model.ImportLine) error {
	if l == nil {
		return fmt.Errorf("%w: line", ErrNilParameter)
	}
	if l.ID == "" || l.BatchID == "" {
		return fmt.Errorf("%w: missing id or batch id", ErrInvalidLine)
	}
	if l.Confidence < 0 || l.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidLine)
	}
	return nil
}

func validateDateRange(start, end string) error {
	if end < start {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start, end)
	}
	return nil
}
