package model

import "time"

// BatchStatus is the lifecycle state of an import batch.
type BatchStatus string

// Batch statuses. Batches only move forward: DRAFT -> REVIEW -> COMMITTED.
const (
	BatchStatusDraft     BatchStatus = "DRAFT"
	BatchStatusReview    BatchStatus = "REVIEW"
	BatchStatusCommitted BatchStatus = "COMMITTED"
)

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch s {
	case BatchStatusDraft:
		return next == BatchStatusReview
	case BatchStatusReview:
		return next == BatchStatusCommitted
	default:
		return false
	}
}

// BatchType identifies the format of the uploaded content.
type BatchType string

// Supported batch types.
const (
	BatchTypeCSV BatchType = "csv"
	BatchTypeOFX BatchType = "ofx"
)

// ImportBatch is the staging unit for a bulk expense upload.
// Content holds the base64-encoded upload as received.
type ImportBatch struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Type      BatchType
	Filename  string
	Content   string
	Status    BatchStatus
	RowCount  int
}

// ImportLine is one parsed row of an import batch.
type ImportLine struct {
	Date             time.Time
	VendorGuess      *int64
	CategoryGuess    *int64
	DuplicateOf      *string
	VendorOverride   *int64
	CategoryOverride *int64
	ID               string
	BatchID          string
	RawDate          string
	RawDescription   string
	RawAmount        string
	RawCurrency      string
	ParseError       string
	Currency         string
	Note             string
	AmountMinor      int64
	Confidence       float64
	RowNumber        int
	Parsed           bool
	Ignored          bool
}

// IsDuplicate reports whether the line was linked to an existing expense.
func (l *ImportLine) IsDuplicate() bool {
	return l.DuplicateOf != nil
}

// Committable reports whether the line becomes an expense on commit.
func (l *ImportLine) Committable() bool {
	return l.Parsed && !l.IsDuplicate() && !l.Ignored
}

// EffectiveVendor returns the reviewer's vendor if set, else the guess.
func (l *ImportLine) EffectiveVendor() *int64 {
	if l.VendorOverride != nil {
		return l.VendorOverride
	}
	return l.VendorGuess
}

// EffectiveCategory returns the reviewer's category if set, else the guess.
func (l *ImportLine) EffectiveCategory() *int64 {
	if l.CategoryOverride != nil {
		return l.CategoryOverride
	}
	return l.CategoryGuess
}
