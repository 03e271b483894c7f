package pos

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// MockClient is a mock implementation of ReceiptFetcher for testing.
type MockClient struct {
	// FetchPageFn can be set by tests to control behavior.
	FetchPageFn func(ctx context.Context, req PageRequest) (*Page, error)

	// Call tracking
	Calls []PageRequest
	mu    sync.Mutex
}

// NewMockClient creates a new mock POS client.
func NewMockClient() *MockClient {
	return &MockClient{
		Calls: []PageRequest{},
	}
}

// NewPagedMock serves the given pages in order, linking them with cursors.
func NewPagedMock(pages ...[]RawReceipt) *MockClient {
	m := NewMockClient()
	m.FetchPageFn = func(_ context.Context, req PageRequest) (*Page, error) {
		idx := 0
		if req.Cursor != "" {
			idx = cursorIndex(req.Cursor)
		}
		if idx >= len(pages) {
			return &Page{}, nil
		}
		page := &Page{Receipts: pages[idx]}
		if idx+1 < len(pages) {
			page.Cursor = cursorFor(idx + 1)
		}
		return page, nil
	}
	return m
}

// FetchPage implements ReceiptFetcher.FetchPage.
func (m *MockClient) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.FetchPageFn != nil {
		return m.FetchPageFn(ctx, req)
	}

	// Default behavior: a single empty page
	return &Page{}, nil
}

// CallCount returns the number of FetchPage calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func cursorFor(idx int) string {
	return "page-" + strconv.Itoa(idx)
}

func cursorIndex(cursor string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
