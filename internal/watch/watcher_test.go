package watch

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/metrics"
	"github.com/Veraticus/undercut/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watchNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func seededWatcher(t *testing.T) (*Watcher, *testutil.TestDB, *metrics.Metrics) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	crawled := watchNow.Add(-time.Hour)
	db.Product("P1", "acct-1", 50000).
		Keyword("usb hub", crawled, testutil.Offer("X1", 1, 48000), testutil.OwnOffer(2, 50000))
	db.Product("P2", "acct-1", 10000).
		Keyword("cable", crawled, testutil.Offer("X2", 1, 12000))
	db.Product("P3", "acct-2", 30000).
		Keyword("charger", crawled, testutil.Offer("X3", 1, 25000))

	m := metrics.New()
	w, err := New(db.Storage, engine.New(), m, Config{Queue: engine.DefaultQueueOptions(watchNow), Concurrency: 2})
	require.NoError(t, err)
	w.nowFunc = func() time.Time { return watchNow }
	return w, db, m
}

func TestWatcher_RunOnce(t *testing.T) {
	w, db, m := seededWatcher(t)
	ctx := context.Background()

	cycle, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, cycle.Reports, 2)
	assert.Equal(t, 2, cycle.Queued())
	assert.ElementsMatch(t, []string{"P1", "P3"}, productIDs(cycle.NewlyQueued))
	assert.Equal(t, watchNow, cycle.StartedAt)

	cycle, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, cycle.NewlyQueued)

	// P2 becomes more expensive than its competitor.
	p2, err := db.Storage.GetProduct(ctx, "P2")
	require.NoError(t, err)
	p2.SellingPrice = 15000
	require.NoError(t, db.Storage.SaveProduct(ctx, p2))

	cycle, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, productIDs(cycle.NewlyQueued))

	assert.InDelta(t, 2, promtest.ToFloat64(m.NewlyQueuedTotal.WithLabelValues("acct-1")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.NewlyQueuedTotal.WithLabelValues("acct-2")), 0)
	assert.InDelta(t, 3, promtest.ToFloat64(m.EvaluationsTotal.WithLabelValues("acct-1", "ok")), 0)
	// P1 trails by 4.17%, P2 by 25%.
	assert.InDelta(t, 1, promtest.ToFloat64(m.QueueItems.WithLabelValues("acct-1", "losing", "medium")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.QueueItems.WithLabelValues("acct-1", "losing", "critical")), 0)
}

func TestWatcher_RunOnce_Canceled(t *testing.T) {
	w, _, _ := seededWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.RunOnce(ctx)
	assert.Error(t, err)
}

func TestWatcher_Run(t *testing.T) {
	w, _, _ := seededWatcher(t)

	assert.Error(t, w.Run(context.Background(), 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.Run(ctx, 10*time.Millisecond))
}
