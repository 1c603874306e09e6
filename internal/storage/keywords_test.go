package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeyword(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")

	first, err := store.AddKeyword(ctx, "P1", "  usb hub  ")
	require.NoError(t, err)
	assert.Equal(t, "usb hub", first.Text)
	assert.NotZero(t, first.ID)
	assert.Nil(t, first.LastCrawledAt)

	_, err = store.AddKeyword(ctx, "P1", "USB Hub")
	assert.ErrorIs(t, err, ErrDuplicateKeyword)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.AddKeyword(ctx, "missing", "usb hub")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = store.AddKeyword(ctx, "P1", "   ")
	assert.ErrorIs(t, err, ErrEmptyString)

	second, err := store.AddKeyword(ctx, "P1", "usb-c hub 7 port")
	require.NoError(t, err)

	keywords, err := store.GetKeywords(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, first.ID, keywords[0].ID)
	assert.Equal(t, second.ID, keywords[1].ID)
}

func TestFindKeyword(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	saveProduct(t, store, "P2", "acct-1")

	added, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)

	found, err := store.FindKeyword(ctx, "P1", "USB HUB")
	require.NoError(t, err)
	assert.Equal(t, added.ID, found.ID)

	_, err = store.FindKeyword(ctx, "P2", "usb hub")
	assert.ErrorIs(t, err, ErrKeywordNotFound)
}

func TestDeleteKeyword(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")

	kw, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)
	require.NoError(t, store.ReplaceListings(ctx, kw.ID, testRun(crawlTime, testListing("X1", 1, 1000))))

	require.NoError(t, store.DeleteKeyword(ctx, kw.ID))

	listings, err := store.GetListings(ctx, kw.ID)
	require.NoError(t, err)
	assert.Empty(t, listings)

	assert.ErrorIs(t, store.DeleteKeyword(ctx, kw.ID), ErrKeywordNotFound)
}
