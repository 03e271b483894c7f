package categorize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/testutil"
)

func TestEngine_LearnFromCorrection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	seafood := db.Vendor("Kim Anh Seafood", "")
	ingredients := db.Category(model.CategoryCodeIngredients)

	engine := NewEngine(db.Storage, DefaultRules())
	require.NoError(t, engine.Reload(ctx))

	before := engine.Categorize(ctx, Query{Description: "CK KIMANHSEAFOODS 1010"})
	assert.Nil(t, before.Vendor)

	result, err := engine.LearnFromCorrection(ctx, Correction{
		Description: "CK KIMANHSEAFOODS 0909",
		VendorID:    seafood.ID,
		CategoryID:  &ingredients.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.AliasCreated)
	assert.Equal(t, "kimanhseafoods", result.Alias)
	assert.True(t, result.CategoryBackfilled)

	after := engine.Categorize(ctx, Query{Description: "CK KIMANHSEAFOODS 1010"})
	assert.Equal(t, SourceExactAlias, after.Source)
	assert.Equal(t, &seafood.ID, after.VendorID())
	assert.Equal(t, &ingredients.ID, after.CategoryID())

	t.Run("second correction is a no-op", func(t *testing.T) {
		again, err := engine.LearnFromCorrection(ctx, Correction{
			Description: "CK KIMANHSEAFOODS 1111",
			VendorID:    seafood.ID,
			CategoryID:  &ingredients.ID,
		})
		require.NoError(t, err)
		assert.False(t, again.AliasCreated)
		assert.False(t, again.CategoryBackfilled)
	})
}

func TestEngine_LearnSkipsMatchingAliases(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	power := db.Vendor("Saigon Power", model.CategoryCodeUtilities, "evn hcmc")
	market := db.Vendor("Ben Thanh Market", "")
	rent := db.Category(model.CategoryCodeRent)

	engine := NewEngine(db.Storage, DefaultRules())
	require.NoError(t, engine.Reload(ctx))

	tests := []struct {
		categoryID   *int64
		name         string
		description  string
		vendorID     int64
		wantAlias    bool
		wantBackfill bool
	}{
		{
			name:        "alias contained in description",
			description: "EVN HCMC 05/2024 electricity",
			vendorID:    power.ID,
			categoryID:  &rent.ID,
		},
		{
			name:        "token similar to vendor name",
			description: "Payment BENTHANHMARKET 0512",
			vendorID:    market.ID,
		},
		{
			name:         "numeric only description still backfills",
			description:  "12345 67",
			vendorID:     market.ID,
			categoryID:   &rent.ID,
			wantBackfill: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.LearnFromCorrection(ctx, Correction{
				Description: tt.description,
				VendorID:    tt.vendorID,
				CategoryID:  tt.categoryID,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlias, got.AliasCreated)
			assert.Equal(t, tt.wantBackfill, got.CategoryBackfilled)
		})
	}

	aliases, err := db.Storage.ListVendorAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, aliases, 1)

	vendor, err := db.Storage.GetVendor(ctx, power.ID)
	require.NoError(t, err)
	assert.NotEqual(t, rent.ID, *vendor.DefaultCategoryID, "existing default category is kept")
}

func TestEngine_LearnUnknownVendor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := NewEngine(db.Storage, nil)

	_, err := engine.LearnFromCorrection(context.Background(), Correction{Description: "x", VendorID: 404})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
