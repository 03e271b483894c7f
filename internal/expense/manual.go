package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/shiftbook/internal/categorize"
	"github.com/Veraticus/shiftbook/internal/model"
)

// ErrInvalidEntry is returned for a manual entry missing required fields.
var ErrInvalidEntry = errors.New("invalid manual entry")

// ManualEntry is an expense typed in by hand. VendorID and CategoryID, when
// set, replace the categorizer's suggestion.
type ManualEntry struct {
	Date        time.Time
	VendorID    *int64
	CategoryID  *int64
	Description string
	Currency    string
	Note        string
	AmountMinor int64
	// Force records the entry even when it looks like a duplicate.
	Force bool
}

// ManualResult is the outcome of RecordManual. Expense is nil when the entry
// was held back as a duplicate.
type ManualResult struct {
	Expense        *model.Expense
	Duplicate      *model.Expense
	Categorization categorize.Result
}

// RecordManual categorizes and stores a single expense. A probable duplicate
// is returned instead of being stored unless Force is set; this is not an error.
func (im *Importer) RecordManual(ctx context.Context, entry ManualEntry) (*ManualResult, error) {
	description := strings.TrimSpace(entry.Description)
	switch {
	case entry.Date.IsZero():
		return nil, fmt.Errorf("%w: missing date", ErrInvalidEntry)
	case description == "":
		return nil, fmt.Errorf("%w: missing description", ErrInvalidEntry)
	case entry.AmountMinor <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}

	guess := im.categories.Categorize(ctx, categorize.Query{
		Date:        entry.Date,
		Description: description,
		AmountMinor: entry.AmountMinor,
	})
	result := &ManualResult{Categorization: guess}

	dup, err := im.duplicates.FindDuplicate(ctx, entry.AmountMinor, entry.Date, description)
	if err != nil {
		return nil, fmt.Errorf("failed duplicate check: %w", err)
	}
	result.Duplicate = dup
	if dup != nil && !entry.Force {
		im.logger.Info("manual expense held as duplicate", "description", description, "duplicate_of", dup.ID)
		return result, nil
	}

	exp := &model.Expense{
		ID:          uuid.NewString(),
		Date:        entry.Date,
		Description: description,
		AmountMinor: entry.AmountMinor,
		Currency:    strings.ToUpper(firstNonEmpty(entry.Currency, im.cfg.DefaultCurrency)),
		Source:      model.SourceManual,
		VendorID:    entry.VendorID,
		CategoryID:  entry.CategoryID,
		Note:        entry.Note,
	}
	if exp.VendorID == nil {
		exp.VendorID = guess.VendorID()
	}
	if exp.CategoryID == nil {
		exp.CategoryID = guess.CategoryID()
	}

	if err := im.store.InsertExpense(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}
	result.Expense = exp

	im.logger.Info("recorded manual expense",
		"id", exp.ID,
		"amount", FormatMinor(exp.AmountMinor),
		"source", guess.Source,
		"forced", dup != nil)
	return result, nil
}
