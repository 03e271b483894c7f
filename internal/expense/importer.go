// Package expense records expenses, either one at a time or through staged
// import batches that are parsed, reviewed and then committed.
package expense

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/shiftbook/internal/categorize"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
)

// Defaults for Config.
const (
	DefaultReviewThreshold = 0.8
	DefaultCurrency        = "VND"
	DefaultLocale          = "vi-VN"
)

// canonicalLocale reads ISO dates and dot-decimal amounts.
const canonicalLocale = "en-US"

// ErrNoVendor is returned when a correction is learned from a line without a vendor.
var ErrNoVendor = errors.New("line has no vendor to learn from")

// Categorizer suggests a vendor and category for a description.
type Categorizer interface {
	Categorize(ctx context.Context, q categorize.Query) categorize.Result
	Reload(ctx context.Context) error
	LearnFromCorrection(ctx context.Context, c categorize.Correction) (*categorize.LearnResult, error)
}

// DuplicateFinder looks up a committed expense that an entry repeats.
type DuplicateFinder interface {
	FindDuplicate(ctx context.Context, amountMinor int64, date time.Time, description string) (*model.Expense, error)
}

// Config holds importer defaults.
type Config struct {
	DefaultCurrency string
	Locale          string
	// ReviewThreshold is the confidence below which a line needs review.
	ReviewThreshold float64
}

// DefaultConfig returns the importer defaults.
func DefaultConfig() Config {
	return Config{
		ReviewThreshold: DefaultReviewThreshold,
		DefaultCurrency: DefaultCurrency,
		Locale:          DefaultLocale,
	}
}

// CreateBatchRequest is an upload to stage. Content is base64 encoded.
type CreateBatchRequest struct {
	Type     model.BatchType
	Filename string
	Content  string
}

// ParseOptions override the importer defaults for one batch.
type ParseOptions struct {
	Mapping         Mapping
	Locale          string
	DefaultCurrency string
}

// ParseSummary counts the outcome of parsing a batch.
type ParseSummary struct {
	Rows       int
	Parsed     int
	Errors     int
	Duplicates int
	Uncertain  int
}

// ListOptions filter ListLines.
type ListOptions struct {
	UncertainOnly bool
}

// LinePatch is a reviewer's edit to one line. Nil fields are left alone.
type LinePatch struct {
	VendorID   *int64
	CategoryID *int64
	Ignore     *bool
	Note       *string
	// Learn teaches the categorizer from the line's resulting vendor and category.
	Learn bool
}

// PatchResult is the updated line and, when requested, what was learned.
type PatchResult struct {
	Line    *model.ImportLine
	Learned *categorize.LearnResult
}

// CommitSummary reports the expenses created by a commit.
type CommitSummary struct {
	ExpenseIDs []string
	Created    int
	Skipped    int
}

// Importer runs the batch workflow: create, parse, review, commit.
type Importer struct {
	store      service.Storage
	categories Categorizer
	duplicates DuplicateFinder
	logger     *slog.Logger
	cfg        Config
}

// NewImporter creates an importer. Zero config fields take their defaults.
func NewImporter(store service.Storage, categories Categorizer, duplicates DuplicateFinder, cfg Config) *Importer {
	defaults := DefaultConfig()
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = defaults.ReviewThreshold
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaults.DefaultCurrency
	}
	if cfg.Locale == "" {
		cfg.Locale = defaults.Locale
	}
	return &Importer{
		store:      store,
		categories: categories,
		duplicates: duplicates,
		cfg:        cfg,
		logger:     slog.Default().With("component", "import"),
	}
}

// ReviewThreshold returns the confidence below which lines need review.
func (im *Importer) ReviewThreshold() float64 {
	return im.cfg.ReviewThreshold
}

// CreateBatch stages an upload as a DRAFT batch and returns its id.
func (im *Importer) CreateBatch(ctx context.Context, req CreateBatchRequest) (string, error) {
	batchType := model.BatchType(strings.ToLower(strings.TrimSpace(string(req.Type))))
	switch batchType {
	case model.BatchTypeCSV, model.BatchTypeOFX:
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, req.Type)
	}

	batch := &model.ImportBatch{
		ID:       uuid.NewString(),
		Type:     batchType,
		Filename: req.Filename,
		Content:  req.Content,
		Status:   model.BatchStatusDraft,
	}
	if err := im.store.InsertImportBatch(ctx, batch); err != nil {
		return "", fmt.Errorf("failed to create batch: %w", err)
	}

	im.logger.Info("created import batch", "batch", batch.ID, "type", batch.Type, "filename", batch.Filename)
	return batch.ID, nil
}

// ParseBatch turns a DRAFT batch into lines and moves it to REVIEW.
// Unreadable content fails the whole batch; a bad row is stored with its
// parse error and does not stop the others.
func (im *Importer) ParseBatch(ctx context.Context, batchID string, opts ParseOptions) (*ParseSummary, error) {
	batch, err := im.store.GetImportBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusDraft {
		return nil, fmt.Errorf("%w: batch %s is %s, want %s",
			common.ErrInvalidBatchState, batch.ID, batch.Status, model.BatchStatusDraft)
	}

	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(batch.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnreadableContent, err)
	}
	rows, err := readRows(ctx, batch.Type, content, opts.Mapping)
	if err != nil {
		return nil, err
	}

	locale := firstNonEmpty(opts.Locale, im.cfg.Locale)
	currency := firstNonEmpty(opts.DefaultCurrency, im.cfg.DefaultCurrency)

	if err := im.categories.Reload(ctx); err != nil && !errors.Is(err, categorize.ErrNoCatalog) {
		return nil, fmt.Errorf("failed to refresh catalog: %w", err)
	}

	summary := &ParseSummary{Rows: len(rows)}
	lines := make([]model.ImportLine, 0, len(rows))
	for i, row := range rows {
		line, err := im.buildLine(ctx, batch.ID, i+1, row, locale, currency)
		if err != nil {
			return nil, err
		}
		if !line.Parsed {
			summary.Errors++
		} else {
			summary.Parsed++
		}
		if line.IsDuplicate() {
			summary.Duplicates++
		}
		if im.NeedsReview(&line) {
			summary.Uncertain++
		}
		lines = append(lines, line)
	}

	err = im.withTx(ctx, func(tx service.Transaction) error {
		for i := range lines {
			if err := tx.InsertImportLine(ctx, &lines[i]); err != nil {
				return fmt.Errorf("failed to store row %d: %w", lines[i].RowNumber, err)
			}
		}
		return tx.UpdateImportBatchStatus(ctx, batch.ID, model.BatchStatusReview, len(lines))
	})
	if err != nil {
		return nil, err
	}

	im.logger.Info("parsed import batch",
		"batch", batch.ID,
		"rows", summary.Rows,
		"parsed", summary.Parsed,
		"errors", summary.Errors,
		"duplicates", summary.Duplicates,
		"uncertain", summary.Uncertain)
	return summary, nil
}

func (im *Importer) buildLine(ctx context.Context, batchID string, rowNumber int, row rawRow, locale, currency string) (model.ImportLine, error) {
	line := model.ImportLine{
		ID:             uuid.NewString(),
		BatchID:        batchID,
		RowNumber:      rowNumber,
		RawDate:        row.Date,
		RawDescription: row.Description,
		RawAmount:      row.Amount,
		RawCurrency:    row.Currency,
		Currency:       strings.ToUpper(firstNonEmpty(row.Currency, currency)),
	}
	if row.Canonical {
		locale = canonicalLocale
	}

	date, err := ParseDate(row.Date, locale)
	if err != nil {
		line.ParseError = err.Error()
		return line, nil
	}
	amount, err := ParseAmount(row.Amount, locale)
	if err != nil {
		line.ParseError = err.Error()
		return line, nil
	}
	if row.Description == "" {
		line.ParseError = fmt.Sprintf("%v: empty description", common.ErrMalformedRow)
		return line, nil
	}

	line.Date = date
	line.AmountMinor = ToMinorUnits(amount)
	line.Parsed = true

	guess := im.categories.Categorize(ctx, categorize.Query{
		Date:        date,
		Description: row.Description,
		AmountMinor: line.AmountMinor,
	})
	line.VendorGuess = guess.VendorID()
	line.CategoryGuess = guess.CategoryID()
	line.Confidence = guess.Confidence

	dup, err := im.duplicates.FindDuplicate(ctx, line.AmountMinor, date, row.Description)
	if err != nil {
		return line, fmt.Errorf("failed duplicate check on row %d: %w", rowNumber, err)
	}
	if dup != nil {
		id := dup.ID
		line.DuplicateOf = &id
	}
	return line, nil
}

// ListLines returns a batch's lines in row order.
func (im *Importer) ListLines(ctx context.Context, batchID string, opts ListOptions) ([]model.ImportLine, error) {
	if _, err := im.store.GetImportBatch(ctx, batchID); err != nil {
		return nil, err
	}
	lines, err := im.store.ListImportLines(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !opts.UncertainOnly {
		return lines, nil
	}

	uncertain := lines[:0]
	for _, l := range lines {
		if im.NeedsReview(&l) {
			uncertain = append(uncertain, l)
		}
	}
	return uncertain, nil
}

// NeedsReview reports whether a parsed line's confidence is below the review threshold.
func (im *Importer) NeedsReview(l *model.ImportLine) bool {
	return l.Parsed && l.Confidence < im.cfg.ReviewThreshold
}

// PatchLine applies a reviewer's edit. The batch must be in REVIEW.
func (im *Importer) PatchLine(ctx context.Context, lineID string, patch LinePatch) (*PatchResult, error) {
	line, err := im.store.GetImportLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	batch, err := im.store.GetImportBatch(ctx, line.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusReview {
		return nil, fmt.Errorf("%w: batch %s is %s, want %s",
			common.ErrInvalidBatchState, batch.ID, batch.Status, model.BatchStatusReview)
	}

	if patch.VendorID != nil {
		if _, err := im.store.GetVendor(ctx, *patch.VendorID); err != nil {
			return nil, fmt.Errorf("vendor %d: %w", *patch.VendorID, err)
		}
		id := *patch.VendorID
		line.VendorOverride = &id
	}
	if patch.CategoryID != nil {
		if err := im.checkCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		id := *patch.CategoryID
		line.CategoryOverride = &id
	}
	if patch.Ignore != nil {
		line.Ignored = *patch.Ignore
	}
	if patch.Note != nil {
		line.Note = *patch.Note
	}

	if err := im.store.UpdateImportLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update line: %w", err)
	}
	result := &PatchResult{Line: line}

	if patch.Learn {
		vendorID := line.EffectiveVendor()
		if vendorID == nil {
			return result, ErrNoVendor
		}
		learned, err := im.categories.LearnFromCorrection(ctx, categorize.Correction{
			VendorID:    *vendorID,
			CategoryID:  line.EffectiveCategory(),
			Description: line.RawDescription,
		})
		if err != nil {
			return result, fmt.Errorf("failed to learn from correction: %w", err)
		}
		result.Learned = learned
	}

	im.logger.Debug("patched import line", "line", line.ID, "row", line.RowNumber, "learn", patch.Learn)
	return result, nil
}

func (im *Importer) checkCategory(ctx context.Context, id int64) error {
	categories, err := im.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.ID == id {
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
}

// CommitBatch creates an expense for every committable line and marks the
// batch COMMITTED, all in one transaction. Overrides win over guesses.
func (im *Importer) CommitBatch(ctx context.Context, batchID string) (*CommitSummary, error) {
	summary := &CommitSummary{}

	err := im.withTx(ctx, func(tx service.Transaction) error {
		batch, err := tx.GetImportBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != model.BatchStatusReview {
			return fmt.Errorf("%w: batch %s is %s, want %s",
				common.ErrInvalidBatchState, batch.ID, batch.Status, model.BatchStatusReview)
		}

		lines, err := tx.ListImportLines(ctx, batch.ID)
		if err != nil {
			return err
		}
		for i := range lines {
			line := &lines[i]
			if !line.Committable() {
				summary.Skipped++
				continue
			}
			exp := expenseFromLine(batch.ID, line)
			if err := tx.InsertExpense(ctx, exp); err != nil {
				return fmt.Errorf("failed to commit row %d: %w", line.RowNumber, err)
			}
			summary.Created++
			summary.ExpenseIDs = append(summary.ExpenseIDs, exp.ID)
		}
		return tx.UpdateImportBatchStatus(ctx, batch.ID, model.BatchStatusCommitted, batch.RowCount)
	})
	if err != nil {
		return nil, err
	}

	im.logger.Info("committed import batch", "batch", batchID, "created", summary.Created, "skipped", summary.Skipped)
	return summary, nil
}

func expenseFromLine(batchID string, line *model.ImportLine) *model.Expense {
	batch, lineID := batchID, line.ID
	return &model.Expense{
		ID:          uuid.NewString(),
		Date:        line.Date,
		Description: line.RawDescription,
		AmountMinor: line.AmountMinor,
		Currency:    line.Currency,
		Source:      model.SourceImported,
		VendorID:    line.EffectiveVendor(),
		CategoryID:  line.EffectiveCategory(),
		BatchID:     &batch,
		LineID:      &lineID,
		Note:        line.Note,
	}
}

func (im *Importer) withTx(ctx context.Context, fn func(service.Transaction) error) error {
	tx, err := im.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			im.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
