package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOverride(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")

	require.NoError(t, store.SaveOverride(ctx, &model.Override{
		Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: 3000, Note: "checked checkout",
	}))

	got, err := store.GetOverride(ctx, model.OverrideShipping, "P1", "X1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.ShippingFee)
	assert.Equal(t, "checked checkout", got.Note)

	// Same kind and key replaces the fee.
	require.NoError(t, store.SaveOverride(ctx, &model.Override{
		Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: 2500,
	}))
	got, err = store.GetOverride(ctx, model.OverrideShipping, "P1", "X1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.ShippingFee)

	// Exclusion and inclusion for the same listing coexist; the engine decides.
	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: "X1", ShippingFee: 99}))
	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideInclusion, ProductID: "P1", ListingKey: "X1"}))

	overrides, err := store.ListOverrides(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, overrides, 3)
	assert.Equal(t, []model.OverrideKind{model.OverrideExclusion, model.OverrideInclusion, model.OverrideShipping},
		[]model.OverrideKind{overrides[0].Kind, overrides[1].Kind, overrides[2].Kind})
	assert.Zero(t, overrides[0].ShippingFee, "fee is only kept for shipping overrides")
}

func TestSaveOverride_Rejects(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")

	err := store.SaveOverride(ctx, &model.Override{Kind: "discount", ProductID: "P1", ListingKey: "X1"})
	assert.ErrorIs(t, err, ErrInvalidOverride)

	err = store.SaveOverride(ctx, &model.Override{Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: -1})
	assert.ErrorIs(t, err, ErrInvalidOverride)

	err = store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "missing", ListingKey: "X1"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteOverride(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: "X1"}))

	require.NoError(t, store.DeleteOverride(ctx, model.OverrideExclusion, "P1", "X1"))

	_, err := store.GetOverride(ctx, model.OverrideExclusion, "P1", "X1")
	assert.ErrorIs(t, err, ErrOverrideNotFound)
	assert.ErrorIs(t, store.DeleteOverride(ctx, model.OverrideExclusion, "P1", "X1"), ErrOverrideNotFound)
}

func TestSaveOverride_NormalizesListingKey(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")

	kw, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)
	unkeyed := model.Listing{
		SellerName:      "Acme",
		Title:           "Blue Widget",
		ExposureRank:    2,
		ItemPrice:       900,
		ShippingFeeType: model.ShippingFree,
	}
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, testRun(time.Now().UTC(), testListing("X1", 1, 950), unkeyed)))

	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: "seller:Acme|Blue Widget"}))
	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: " X1 "}))

	got, err := store.GetOverride(ctx, model.OverrideExclusion, "P1", "SELLER: acme | blue widget ")
	require.NoError(t, err)
	assert.Equal(t, "seller:acme|blue widget", got.ListingKey)

	snapshot, err := store.LoadAccountSnapshot(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Products, 1)
	product := snapshot.Products[0]
	set := model.NewOverrideSet(snapshot.Overrides)

	require.Len(t, product.Keywords[0].Listings, 2)
	for _, listing := range product.Keywords[0].Listings {
		relevant, reason := engine.ClassifyRelevance(listing, product, set)
		assert.False(t, relevant, "listing %s", listing.Key())
		assert.Equal(t, model.ReasonManualBlacklist, reason)
	}

	require.NoError(t, store.DeleteOverride(ctx, model.OverrideExclusion, "P1", " X1"))
	_, err = store.GetOverride(ctx, model.OverrideExclusion, "P1", "X1")
	assert.ErrorIs(t, err, ErrOverrideNotFound)
}
