package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var crawlTime = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func TestReplaceListings(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	kw, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)

	shipped := testListing("X2", 1, 9000)
	shipped.ShippingFeeType = model.ShippingKnown
	shipped.ShippingFee = 500
	noID := model.Listing{SellerName: "corner store", Title: "hub", ExposureRank: 3, ItemPrice: 9900, ShippingFeeType: "calculated"}
	own := testListing("OWN-1", 2, 10000)
	own.IsOwnListing = true

	require.NoError(t, store.ReplaceListings(ctx, kw.ID, testRun(crawlTime, noID, own, shipped)))

	listings, err := store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{listings[0].ExposureRank, listings[1].ExposureRank, listings[2].ExposureRank})
	assert.Equal(t, model.ShippingKnown, listings[0].ShippingFeeType)
	assert.Equal(t, int64(500), listings[0].ShippingFee)
	assert.True(t, listings[1].IsOwnListing)
	assert.Nil(t, listings[2].ExternalProductID)
	assert.Equal(t, model.ShippingUnknown, listings[2].ShippingFeeType)
	for _, l := range listings {
		assert.Equal(t, kw.ID, l.KeywordID)
	}

	found, err := store.FindKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)
	require.NotNil(t, found.LastCrawledAt)
	assert.True(t, found.LastCrawledAt.Equal(crawlTime))
	assert.Equal(t, "run-090000", found.LastRunID)
}

func TestReplaceListings_Wholesale(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	kw, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)

	first := testRun(crawlTime, testListing("X1", 1, 1000), testListing("X2", 2, 1100), testListing("X3", 3, 1200))
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, first))

	// Re-importing the same run leaves the same rows.
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, first))
	listings, err := store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	assert.Len(t, listings, 3)

	second := testRun(crawlTime.Add(time.Hour), testListing("X9", 1, 900))
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, second))
	listings, err = store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "X9", *listings[0].ExternalProductID)

	// An empty run clears the keyword.
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, testRun(crawlTime.Add(2*time.Hour))))
	listings, err = store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestReplaceListings_Rejects(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	kw, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, testRun(crawlTime, testListing("X1", 1, 1000))))

	tests := []struct {
		name    string
		keyword int64
		run     model.CrawlRun
		wantErr error
	}{
		{
			name:    "older crawl",
			keyword: kw.ID,
			run:     testRun(crawlTime.Add(-time.Minute), testListing("X2", 1, 1000)),
			wantErr: ErrStaleCrawl,
		},
		{
			name:    "unknown keyword",
			keyword: kw.ID + 100,
			run:     testRun(crawlTime, testListing("X2", 1, 1000)),
			wantErr: ErrKeywordNotFound,
		},
		{
			name:    "zero exposure rank",
			keyword: kw.ID,
			run:     testRun(crawlTime.Add(time.Hour), testListing("X2", 0, 1000)),
			wantErr: ErrInvalidListing,
		},
		{
			name:    "duplicate exposure rank",
			keyword: kw.ID,
			run:     testRun(crawlTime.Add(time.Hour), testListing("X2", 1, 1000), testListing("X3", 1, 1000)),
			wantErr: ErrInvalidCrawlRun,
		},
		{
			name:    "missing crawl time",
			keyword: kw.ID,
			run:     model.CrawlRun{RunID: "r"},
			wantErr: ErrInvalidCrawlRun,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.ReplaceListings(ctx, tt.keyword, tt.run), tt.wantErr)
		})
	}

	// Rejected runs leave the stored crawl untouched.
	listings, err := store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "X1", *listings[0].ExternalProductID)
}
