package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupManager(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	saveProduct(t, store, "P1", "acct-1")
	_, err := store.AddKeyword(ctx, "P1", "usb hub")
	require.NoError(t, err)

	bm, err := store.NewBackupManager()
	require.NoError(t, err)

	info, err := bm.Create(ctx, "before-reprice", "manual")
	require.NoError(t, err)
	assert.DirExists(t, bm.Dir())
	assert.Equal(t, "before-reprice", info.ID)
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Equal(t, 1, info.RowCounts["products"])
	assert.Equal(t, 1, info.RowCounts["keywords"])
	assert.Positive(t, info.FileSize)

	require.NoError(t, bm.Verify(ctx, "before-reprice"))

	_, err = bm.Create(ctx, "before-reprice", "again")
	assert.ErrorIs(t, err, ErrBackupExists)

	_, err = bm.Create(ctx, "../escape", "")
	assert.Error(t, err)

	backups, err := bm.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.False(t, backups[0].IsAuto)

	require.NoError(t, bm.Delete(ctx, "before-reprice"))
	assert.ErrorIs(t, bm.Delete(ctx, "before-reprice"), ErrBackupNotFound)
	assert.ErrorIs(t, bm.Verify(ctx, "before-reprice"), ErrBackupNotFound)
}

func TestBackupManager_AutoPrunes(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bm, err := store.NewBackupManager()
	require.NoError(t, err)

	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	calls := 0
	bm.nowFunc = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	for i := 0; i < maxAutoBackups+2; i++ {
		_, err := bm.AutoBackup(ctx, fmt.Sprintf("migrate%d", i))
		require.NoError(t, err)
	}
	_, err = bm.Create(ctx, "manual", "kept")
	require.NoError(t, err)

	backups, err := bm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, b := range backups {
		if b.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoBackups, auto)
	assert.Len(t, backups, maxAutoBackups+1)
	assert.Equal(t, "manual", backups[0].ID)
}
