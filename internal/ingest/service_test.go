package ingest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/pos"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/shift"
	"github.com/Veraticus/shiftbook/internal/testutil"
)

var (
	windowStart = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(shift.Length)
)

func testCalculator(t *testing.T) *shift.Calculator {
	t.Helper()
	calc, err := shift.NewCalculator(7*time.Hour, 17)
	require.NoError(t, err)
	return calc
}

func raw(id, createdAt string) pos.RawReceipt {
	return pos.RawReceipt{ReceiptNumber: id, CreatedAt: createdAt}
}

func TestService_IngestIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fetcher := pos.NewPagedMock(
		[]pos.RawReceipt{
			raw("1-001", "2024-03-10T10:05:00Z"),
			raw("1-002", "2024-03-10T11:00:00Z"),
			raw("1-003", "2024-03-10T12:00:00Z"),
		},
		[]pos.RawReceipt{
			raw("1-004", "2024-03-10T13:00:00Z"),
			raw("1-005", "2024-03-10T14:00:00Z"),
		},
	)
	svc := NewService(fetcher, db.Storage, testCalculator(t))

	first, err := svc.Ingest(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Processed)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, 2, first.Pages)

	second, err := svc.Ingest(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 5, second.Skipped)

	count, err := db.Storage.CountReceipts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestService_IssuesOneRequestPerPage(t *testing.T) {
	for _, k := range []int{1, 2, 4} {
		pages := make([][]pos.RawReceipt, k)
		for i := range pages {
			pages[i] = []pos.RawReceipt{raw("r-"+string(rune('a'+i)), "2024-03-10T12:00:00Z")}
		}
		fetcher := pos.NewPagedMock(pages...)
		svc := NewService(fetcher, testutil.SetupTestDB(t).Storage, testCalculator(t))

		result, err := svc.Ingest(context.Background(), windowStart, windowEnd)
		require.NoError(t, err)
		assert.Equal(t, k, fetcher.CallCount())
		assert.Equal(t, k, result.Pages)
		assert.Equal(t, k, result.Processed)

		assert.Empty(t, fetcher.Calls[0].Cursor)
		for i := 1; i < k; i++ {
			assert.NotEmpty(t, fetcher.Calls[i].Cursor)
			assert.Equal(t, windowStart, fetcher.Calls[i].Start)
			assert.Equal(t, windowEnd, fetcher.Calls[i].End)
		}
	}
}

func TestService_AssignsShiftDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fetcher := pos.NewPagedMock([]pos.RawReceipt{
		raw("before-cutover", "2024-03-10T09:59:59Z"),
		raw("at-cutover", "2024-03-10T10:00:00Z"),
		raw("after-midnight", "2024-03-10T18:30:00+00:00"),
	})
	svc := NewService(fetcher, db.Storage, testCalculator(t))

	_, err := svc.Ingest(ctx, windowStart.Add(-time.Hour), windowEnd)
	require.NoError(t, err)

	tests := []struct {
		externalID string
		wantShift  string
	}{
		{externalID: "before-cutover", wantShift: "2024-03-09"},
		{externalID: "at-cutover", wantShift: "2024-03-10"},
		{externalID: "after-midnight", wantShift: "2024-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.externalID, func(t *testing.T) {
			r, err := db.Storage.FindReceiptByExternalID(ctx, tt.externalID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShift, r.ShiftDate.Format(shift.DateLayout))
		})
	}
}

func TestService_RejectsMalformedRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)

	fetcher := pos.NewPagedMock([]pos.RawReceipt{
		{CreatedAt: "2024-03-10T12:00:00Z"},
		raw("no-time", ""),
		raw("bad-time", "10/03/2024 12:00"),
		raw("good", "2024-03-10T12:00:00Z"),
	})
	svc := NewService(fetcher, db.Storage, testCalculator(t))

	result, err := svc.Ingest(context.Background(), windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rejected)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 4, result.Total())
}

func TestService_ExternalIDFallsBackToReceiptNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fetcher := pos.NewPagedMock([]pos.RawReceipt{
		{ID: "abc", ReceiptNumber: "1-0001", CreatedAt: "2024-03-10T12:00:00Z"},
		{ReceiptNumber: "1-0002", CreatedAt: "2024-03-10T12:05:00Z"},
	})
	svc := NewService(fetcher, db.Storage, testCalculator(t))

	result, err := svc.Ingest(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	for _, id := range []string{"abc", "1-0002"} {
		_, err := db.Storage.FindReceiptByExternalID(ctx, id)
		assert.NoError(t, err, id)
	}
	_, err = db.Storage.FindReceiptByExternalID(ctx, "1-0001")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// flakyStore fails inserts for selected external ids.
type flakyStore struct {
	service.ReceiptStore
	failFor map[string]bool
}

func (f *flakyStore) InsertReceipt(ctx context.Context, r *model.Receipt) error {
	if f.failFor[r.ExternalID] {
		return errors.New("disk full")
	}
	return f.ReceiptStore.InsertReceipt(ctx, r)
}

func TestService_InsertFailureIsCountedNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := &flakyStore{ReceiptStore: db.Storage, failFor: map[string]bool{"2": true}}

	fetcher := pos.NewPagedMock(
		[]pos.RawReceipt{raw("1", "2024-03-10T12:00:00Z"), raw("2", "2024-03-10T12:01:00Z")},
		[]pos.RawReceipt{raw("3", "2024-03-10T12:02:00Z")},
	)
	svc := NewService(fetcher, store, testCalculator(t))

	result, err := svc.Ingest(context.Background(), windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Pages)
}

func TestService_UpstreamFailureAbortsWithPartialResult(t *testing.T) {
	db := testutil.SetupTestDB(t)

	fetcher := pos.NewMockClient()
	fetcher.FetchPageFn = func(_ context.Context, req pos.PageRequest) (*pos.Page, error) {
		if req.Cursor == "" {
			return &pos.Page{
				Receipts: []pos.RawReceipt{raw("1", "2024-03-10T12:00:00Z"), raw("2", "2024-03-10T12:01:00Z")},
				Cursor:   "next",
			}, nil
		}
		return nil, &common.UpstreamError{StatusCode: http.StatusBadGateway, Body: "bad gateway"}
	}
	svc := NewService(fetcher, db.Storage, testCalculator(t))

	result, err := svc.Ingest(context.Background(), windowStart, windowEnd)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 2, fetcher.CallCount(), "no retry after a failed page")

	count, err := db.Storage.CountReceipts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "progress before the failure is kept")
}

func TestService_TransportErrorWrapsUpstream(t *testing.T) {
	fetcher := pos.NewMockClient()
	fetcher.FetchPageFn = func(context.Context, pos.PageRequest) (*pos.Page, error) {
		return nil, errors.New("connection refused")
	}
	svc := NewService(fetcher, testutil.SetupTestDB(t).Storage, testCalculator(t))

	_, err := svc.Ingest(context.Background(), windowStart, windowEnd)
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestService_OnPageAndCancellation(t *testing.T) {
	fetcher := pos.NewPagedMock(
		[]pos.RawReceipt{raw("1", "2024-03-10T12:00:00Z")},
		[]pos.RawReceipt{raw("2", "2024-03-10T12:01:00Z")},
		[]pos.RawReceipt{raw("3", "2024-03-10T12:02:00Z")},
	)
	svc := NewService(fetcher, testutil.SetupTestDB(t).Storage, testCalculator(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress []PageProgress
	svc.OnPage = func(p PageProgress) {
		progress = append(progress, p)
		if p.Page == 1 {
			cancel()
		}
	}

	result, err := svc.Ingest(ctx, windowStart, windowEnd)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Processed)
	require.Len(t, progress, 1)
	assert.Equal(t, 1, progress[0].Received)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestService_InvalidWindow(t *testing.T) {
	svc := NewService(pos.NewMockClient(), testutil.SetupTestDB(t).Storage, testCalculator(t))

	_, err := svc.Ingest(context.Background(), windowEnd, windowStart)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
