package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
)

func TestSQLiteStorage_ImportBatchLifecycle(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	batch := &model.ImportBatch{
		ID:       "batch-1",
		Type:     model.BatchTypeCSV,
		Filename: "may.csv",
		Content:  "ZGF0ZSxkZXNjcmlwdGlvbixhbW91bnQK",
	}
	require.NoError(t, store.InsertImportBatch(ctx, batch))
	assert.Equal(t, model.BatchStatusDraft, batch.Status)

	got, err := store.GetImportBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, model.BatchTypeCSV, got.Type)
	assert.Equal(t, "may.csv", got.Filename)
	assert.Equal(t, batch.Content, got.Content)

	tests := []struct {
		wantErr error
		name    string
		status  model.BatchStatus
	}{
		{name: "skip review", status: model.BatchStatusCommitted, wantErr: common.ErrInvalidBatchState},
		{name: "draft to review", status: model.BatchStatusReview},
		{name: "review to review", status: model.BatchStatusReview, wantErr: common.ErrInvalidBatchState},
		{name: "review to committed", status: model.BatchStatusCommitted},
		{name: "committed is final", status: model.BatchStatusReview, wantErr: common.ErrInvalidBatchState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpdateImportBatchStatus(ctx, "batch-1", tt.status, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := store.GetImportBatch(ctx, "batch-1")
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, 3, got.RowCount)
		})
	}

	t.Run("missing batch", func(t *testing.T) {
		_, err := store.GetImportBatch(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown type", func(t *testing.T) {
		err := store.InsertImportBatch(ctx, &model.ImportBatch{ID: "b2", Type: "xls"})
		assert.ErrorIs(t, err, ErrInvalidBatch)
	})
}

func TestSQLiteStorage_ImportLines(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.InsertImportBatch(ctx, &model.ImportBatch{
		ID: "batch-1", Type: model.BatchTypeCSV, Content: "eA==",
	}))

	vendorID := int64(3)
	dup := "exp-9"
	parsed := &model.ImportLine{
		ID:             "line-2",
		BatchID:        "batch-1",
		RowNumber:      2,
		RawDate:        "2024-05-01",
		RawDescription: "EVN electric",
		RawAmount:      "1,200,000",
		Parsed:         true,
		Date:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		AmountMinor:    120000000,
		Currency:       "VND",
		VendorGuess:    &vendorID,
		Confidence:     0.95,
		DuplicateOf:    &dup,
	}
	broken := &model.ImportLine{
		ID:             "line-1",
		BatchID:        "batch-1",
		RowNumber:      1,
		RawDate:        "yesterday",
		RawDescription: "???",
		ParseError:     "unrecognized date",
	}
	require.NoError(t, store.InsertImportLine(ctx, parsed))
	require.NoError(t, store.InsertImportLine(ctx, broken))

	lines, err := store.ListImportLines(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "line-1", lines[0].ID, "lines are ordered by row number")
	assert.False(t, lines[0].Parsed)
	assert.True(t, lines[0].Date.IsZero())
	assert.Equal(t, "unrecognized date", lines[0].ParseError)

	got := lines[1]
	assert.True(t, got.Parsed)
	assert.Equal(t, "2024-05-01", got.Date.Format(dateLayout))
	assert.Equal(t, int64(120000000), got.AmountMinor)
	require.NotNil(t, got.VendorGuess)
	assert.Equal(t, vendorID, *got.VendorGuess)
	assert.Nil(t, got.CategoryGuess)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.True(t, got.IsDuplicate())
	assert.False(t, got.Committable())

	t.Run("update reviewer fields", func(t *testing.T) {
		override := int64(5)
		got.VendorOverride = &override
		got.Ignored = true
		got.Note = "personal"
		require.NoError(t, store.UpdateImportLine(ctx, &got))

		reloaded, err := store.GetImportLine(ctx, "line-2")
		require.NoError(t, err)
		require.NotNil(t, reloaded.VendorOverride)
		assert.Equal(t, override, *reloaded.EffectiveVendor())
		assert.True(t, reloaded.Ignored)
		assert.Equal(t, "personal", reloaded.Note)
	})

	t.Run("missing line", func(t *testing.T) {
		_, err := store.GetImportLine(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)

		err = store.UpdateImportLine(ctx, &model.ImportLine{ID: "nope", BatchID: "batch-1"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		err := store.InsertImportLine(ctx, &model.ImportLine{ID: "line-3", BatchID: "batch-1", Confidence: 1.5})
		assert.ErrorIs(t, err, ErrInvalidLine)
	})
}
