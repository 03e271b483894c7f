package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
)

func dayRange(start, end time.Time) service.DateRange {
	return service.DateRange{Start: start, End: end}
}

func TestSQLiteStorage_FindExpenseCandidates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed := []model.Expense{
		{ID: "e1", Date: base, Description: "Electric bill", AmountMinor: 120000},
		{ID: "e2", Date: base.AddDate(0, 0, 2), Description: "Electric bill", AmountMinor: 120050},
		{ID: "e3", Date: base.AddDate(0, 0, 5), Description: "Electric bill", AmountMinor: 120000},
		{ID: "e4", Date: base, Description: "Rent", AmountMinor: 900000},
	}
	for i := range seed {
		seed[i].Currency = "VND"
		seed[i].Source = model.SourceImported
		require.NoError(t, store.InsertExpense(ctx, &seed[i]))
	}

	tests := []struct {
		name    string
		amounts service.AmountRange
		dates   service.DateRange
		wantIDs []string
	}{
		{
			name:    "amount and date window",
			amounts: service.AmountRange{Min: 119900, Max: 120100},
			dates:   dayRange(base.AddDate(0, 0, -2), base.AddDate(0, 0, 2)),
			wantIDs: []string{"e1", "e2"},
		},
		{
			name:    "exact amount only",
			amounts: service.AmountRange{Min: 120000, Max: 120000},
			dates:   dayRange(base.AddDate(0, 0, -10), base.AddDate(0, 0, 10)),
			wantIDs: []string{"e1", "e3"},
		},
		{
			name:    "no match",
			amounts: service.AmountRange{Min: 1, Max: 10},
			dates:   dayRange(base, base),
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindExpenseCandidates(ctx, tt.amounts, tt.dates)
			require.NoError(t, err)

			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestSQLiteStorage_InsertExpense(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	batchID, lineID := "batch-1", "line-1"
	vendorID := int64(7)
	e := &model.Expense{
		ID:          "exp-1",
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "Chợ Bến Thành",
		AmountMinor: 45000,
		Currency:    "VND",
		Source:      model.SourceImported,
		VendorID:    &vendorID,
		BatchID:     &batchID,
		LineID:      &lineID,
		Note:        "weekly market run",
	}
	require.NoError(t, store.InsertExpense(ctx, e))
	assert.False(t, e.CreatedAt.IsZero())

	got, err := store.ListExpensesByDate(ctx, dayRange(e.Date, e.Date))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chợ Bến Thành", got[0].Description)
	require.NotNil(t, got[0].VendorID)
	assert.Equal(t, vendorID, *got[0].VendorID)
	assert.Nil(t, got[0].CategoryID)
	require.NotNil(t, got[0].BatchID)
	assert.Equal(t, batchID, *got[0].BatchID)
	assert.Equal(t, "weekly market run", got[0].Note)

	t.Run("duplicate id", func(t *testing.T) {
		err := store.InsertExpense(ctx, e)
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("invalid expenses", func(t *testing.T) {
		tests := []struct {
			expense *model.Expense
			name    string
		}{
			{name: "missing id", expense: &model.Expense{Date: e.Date, Currency: "VND", Source: model.SourceManual}},
			{name: "negative amount", expense: &model.Expense{ID: "x", Date: e.Date, AmountMinor: -1, Currency: "VND", Source: model.SourceManual}},
			{name: "missing currency", expense: &model.Expense{ID: "x", Date: e.Date, Source: model.SourceManual}},
			{name: "unknown source", expense: &model.Expense{ID: "x", Date: e.Date, Currency: "VND", Source: "other"}},
			{name: "missing date", expense: &model.Expense{ID: "x", Currency: "VND", Source: model.SourceManual}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, store.InsertExpense(ctx, tt.expense), ErrInvalidExpense)
			})
		}
	})

	t.Run("inverted date range", func(t *testing.T) {
		_, err := store.ListExpensesByDate(ctx, dayRange(e.Date, e.Date.AddDate(0, 0, -1)))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}
