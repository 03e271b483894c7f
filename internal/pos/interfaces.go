package pos

import (
	"context"
	"time"
)

// ReceiptFetcher retrieves pages of receipts from the point-of-sale system.
// This interface allows for easy mocking in tests and swapping data sources.
type ReceiptFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// PageRequest selects one page of receipts created in [Start, End).
type PageRequest struct {
	Start  time.Time
	End    time.Time
	Cursor string
}
