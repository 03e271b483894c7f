package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
)

func TestSQLiteStorage_Vendors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	utilities, err := store.GetCategoryByCode(ctx, model.CategoryCodeUtilities)
	require.NoError(t, err)

	power := &model.Vendor{Name: "Saigon Power", DefaultCategoryID: &utilities.ID}
	require.NoError(t, store.CreateVendor(ctx, power))
	assert.NotZero(t, power.ID)

	market := &model.Vendor{Name: "Ben Thanh Market"}
	require.NoError(t, store.CreateVendor(ctx, market))

	t.Run("get vendor", func(t *testing.T) {
		got, err := store.GetVendor(ctx, power.ID)
		require.NoError(t, err)
		assert.Equal(t, "Saigon Power", got.Name)
		require.True(t, got.HasDefaultCategory())
		assert.Equal(t, utilities.ID, *got.DefaultCategoryID)
	})

	t.Run("missing vendor", func(t *testing.T) {
		_, err := store.GetVendor(ctx, 9999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := store.CreateVendor(ctx, &model.Vendor{Name: "Saigon Power"})
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("empty name", func(t *testing.T) {
		err := store.CreateVendor(ctx, &model.Vendor{Name: "  "})
		assert.ErrorIs(t, err, ErrInvalidVendor)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		vendors, err := store.ListVendors(ctx)
		require.NoError(t, err)
		require.Len(t, vendors, 2)
		assert.Equal(t, "Ben Thanh Market", vendors[0].Name)
		assert.False(t, vendors[0].HasDefaultCategory())
	})

	t.Run("backfill default category", func(t *testing.T) {
		ingredients, err := store.GetCategoryByCode(ctx, model.CategoryCodeIngredients)
		require.NoError(t, err)
		require.NoError(t, store.UpdateVendorDefaultCategory(ctx, market.ID, ingredients.ID))

		got, err := store.GetVendor(ctx, market.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DefaultCategoryID)
		assert.Equal(t, ingredients.ID, *got.DefaultCategoryID)

		err = store.UpdateVendorDefaultCategory(ctx, 9999, ingredients.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("aliases", func(t *testing.T) {
		alias := &model.VendorAlias{VendorID: power.ID, Alias: "evn hcmc"}
		require.NoError(t, store.InsertVendorAlias(ctx, alias))
		assert.NotZero(t, alias.ID)

		err := store.InsertVendorAlias(ctx, &model.VendorAlias{VendorID: power.ID, Alias: "evn hcmc"})
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)

		require.NoError(t, store.InsertVendorAlias(ctx, &model.VendorAlias{VendorID: market.ID, Alias: "cho ben thanh"}))

		aliases, err := store.ListVendorAliases(ctx)
		require.NoError(t, err)
		assert.Len(t, aliases, 2)
	})
}

func TestSQLiteStorage_Categories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(defaultCategories))

	cat, err := store.GetCategoryByCode(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCodeRent, cat.Code)

	_, err = store.GetCategoryByCode(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
