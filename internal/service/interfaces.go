// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/shiftbook/internal/model"
)

// ReceiptStore persists point-of-sale receipts.
type ReceiptStore interface {
	// FindReceiptByExternalID returns common.ErrNotFound when no receipt has the id.
	FindReceiptByExternalID(ctx context.Context, externalID string) (*model.Receipt, error)
	// InsertReceipt returns common.ErrDuplicateEntry when the external id is taken.
	InsertReceipt(ctx context.Context, receipt *model.Receipt) error
	CountReceipts(ctx context.Context) (int, error)
	ListReceiptsByShift(ctx context.Context, shiftDate time.Time) ([]model.Receipt, error)
}

// AmountRange is an inclusive range of minor currency units.
type AmountRange struct {
	Min int64
	Max int64
}

// DateRange is an inclusive range of instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ExpenseStore persists committed expenses.
type ExpenseStore interface {
	FindExpenseCandidates(ctx context.Context, amounts AmountRange, dates DateRange) ([]model.Expense, error)
	InsertExpense(ctx context.Context, expense *model.Expense) error
	ListExpensesByDate(ctx context.Context, dates DateRange) ([]model.Expense, error)
}

// CatalogStore holds vendors, their aliases and categories.
type CatalogStore interface {
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	ListVendorAliases(ctx context.Context) ([]model.VendorAlias, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetVendor(ctx context.Context, id int64) (*model.Vendor, error)
	GetCategoryByCode(ctx context.Context, code string) (*model.Category, error)
	CreateVendor(ctx context.Context, vendor *model.Vendor) error
	InsertVendorAlias(ctx context.Context, alias *model.VendorAlias) error
	UpdateVendorDefaultCategory(ctx context.Context, vendorID, categoryID int64) error
}

// ImportStore persists import batches and their lines.
type ImportStore interface {
	InsertImportBatch(ctx context.Context, batch *model.ImportBatch) error
	GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error)
	UpdateImportBatchStatus(ctx context.Context, id string, status model.BatchStatus, rowCount int) error
	InsertImportLine(ctx context.Context, line *model.ImportLine) error
	GetImportLine(ctx context.Context, id string) (*model.ImportLine, error)
	ListImportLines(ctx context.Context, batchID string) ([]model.ImportLine, error)
	UpdateImportLine(ctx context.Context, line *model.ImportLine) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	ReceiptStore
	ExpenseStore
	CatalogStore
	ImportStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	ReceiptStore
	ExpenseStore
	CatalogStore
	ImportStore

	Commit() error
	Rollback() error
}
