package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAccountSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	saveProduct(t, store, "P1", "acct-1")
	saveProduct(t, store, "P2", "acct-1")
	saveProduct(t, store, "OTHER", "acct-2")

	hub, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)
	hub7, err := store.AddKeyword(ctx, "P1", "usb hub 7 port")
	require.NoError(t, err)
	_, err = store.AddKeyword(ctx, "P2", "never crawled")
	require.NoError(t, err)
	other, err := store.AddKeyword(ctx, "OTHER", "usb hub")
	require.NoError(t, err)

	require.NoError(t, store.ReplaceListings(ctx, hub.ID, testRun(crawlTime, testListing("X1", 1, 1000), testListing("X2", 2, 1100))))
	require.NoError(t, store.ReplaceListings(ctx, hub7.ID, testRun(crawlTime.Add(time.Hour), testListing("X1", 1, 990))))
	require.NoError(t, store.ReplaceListings(ctx, other.ID, testRun(crawlTime, testListing("Z1", 1, 1))))

	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: "X2"}))
	require.NoError(t, store.SaveOverride(ctx, &model.Override{Kind: model.OverrideExclusion, ProductID: "OTHER", ListingKey: "Z1"}))

	snapshot, err := store.LoadAccountSnapshot(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", snapshot.AccountID)
	assert.False(t, snapshot.CapturedAt.IsZero())

	require.Len(t, snapshot.Products, 2)
	p1 := snapshot.Products[0]
	assert.Equal(t, "P1", p1.ID)
	require.Len(t, p1.Keywords, 2)
	assert.Len(t, p1.Keywords[0].Listings, 2)
	assert.Len(t, p1.Keywords[1].Listings, 1)
	require.NotNil(t, p1.LastRefreshedAt())
	assert.True(t, p1.LastRefreshedAt().Equal(crawlTime.Add(time.Hour)))

	p2 := snapshot.Products[1]
	require.Len(t, p2.Keywords, 1)
	assert.Empty(t, p2.Keywords[0].Listings)
	assert.Nil(t, p2.LastRefreshedAt())

	require.Len(t, snapshot.Overrides, 1)
	assert.Equal(t, "X2", snapshot.Overrides[0].ListingKey)
}

func TestLoadAccountSnapshot_UnknownAccount(t *testing.T) {
	store := createTestStorage(t)

	snapshot, err := store.LoadAccountSnapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Products)
	assert.Empty(t, snapshot.Overrides)
}
