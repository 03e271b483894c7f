package model

import "time"

// ExpenseSource records how an expense entered the ledger.
type ExpenseSource string

// Expense sources.
const (
	SourceManual   ExpenseSource = "manual"
	SourceImported ExpenseSource = "imported"
)

// Expense is a committed financial entry. AmountMinor is in minor currency units.
type Expense struct {
	Date        time.Time
	CreatedAt   time.Time
	VendorID    *int64
	CategoryID  *int64
	BatchID     *string
	LineID      *string
	ID          string
	Description string
	Currency    string
	Source      ExpenseSource
	Note        string
	AmountMinor int64
}
