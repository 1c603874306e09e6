package engine

import (
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountSnapshot() model.AccountSnapshot {
	losing := testProduct(50000, ownListing(2, 50000), competitor("X1", 1, 48000), competitor("X2", 3, 52000))
	losing.ID = "losing"

	critical := testProduct(30000, ownListing(1, 30000), competitor("X1", 2, 25000))
	critical.ID = "critical"

	tie := testProduct(20000, competitor("X1", 1, 20000))
	tie.ID = "tie"

	winning := testProduct(10000, ownListing(1, 10000), competitor("X1", 2, 12000), competitor("X2", 3, 9000))
	winning.ID = "winning"

	alone := testProduct(10000, ownListing(1, 10000))
	alone.ID = "alone"

	locked := testProduct(10000, competitor("X1", 1, 8000))
	locked.ID = "locked"
	locked.IsPriceLocked = true
	locked.PriceLockReason = "MAP agreement"

	filtered := testProduct(10000, competitor("X1", 1, 100), competitor("X9", 2, 10500))
	filtered.ID = "filtered"
	filtered.PriceFilterMinPct = ptr(50.0)

	return model.AccountSnapshot{
		AccountID: "acct-1",
		Products:  []model.Product{losing, critical, tie, winning, alone, locked, filtered},
		Overrides: []model.Override{
			{Kind: model.OverrideExclusion, ProductID: "winning", ListingKey: "X2"},
		},
	}
}

func TestEvaluateAccount(t *testing.T) {
	e := New()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	opts := DefaultQueueOptions(now)
	opts.IncludeSameTotal = true

	got := e.EvaluateAccount(accountSnapshot(), opts)
	assert.Equal(t, "acct-1", got.AccountID)
	require.Len(t, got.Products, 7)

	assert.Equal(t, []string{"critical", "losing", "tie"}, ids(got.Queue))
	assert.Equal(t, model.SeverityCritical, got.Queue[0].Severity)
	assert.Equal(t, model.SeverityMedium, got.Queue[1].Severity)
	require.NotNil(t, got.Queue[1].ExposureRank)
	assert.Equal(t, 2, *got.Queue[1].ExposureRank)
	assert.Equal(t, model.FreshnessFresh, got.Queue[1].Freshness)

	require.Len(t, got.Locked, 1)
	assert.Equal(t, "locked", got.Locked[0].ProductID)
	assert.Equal(t, int64(2000), *got.Locked[0].PriceGap)

	assert.Equal(t, Summary{
		Winning:       3,
		Close:         1,
		Losing:        2,
		NoCompetitors: 1,
		Locked:        1,
		Total:         7,
	}, got.Summary)
}

func TestEvaluateProduct_Locked(t *testing.T) {
	product := testProduct(10000, competitor("X1", 1, 8000))
	product.IsPriceLocked = true

	report := New().EvaluateProduct(product, nil)
	assert.False(t, report.IsClassified())
	assert.Equal(t, model.Status(""), report.Status.Status)
	require.NotNil(t, report.Status.PriceGap)
	assert.Equal(t, int64(2000), *report.Status.PriceGap)
}

func TestEvaluateProduct_ScenarioB(t *testing.T) {
	product := testProduct(50000, ownListing(1, 50000))
	e := New()

	report := e.EvaluateProduct(product, nil)
	assert.True(t, report.IsClassified())
	assert.Equal(t, model.StatusWinning, report.Status.Status)
	assert.Nil(t, report.Status.PriceGap)

	queue := BuildQueue([]ProductReport{report}, QueueOptions{IncludeSameTotal: true}, e.Config())
	assert.Empty(t, queue)
}

func TestEvaluateProduct_ScenarioE(t *testing.T) {
	product := testProduct(50000, competitor("X1", 1, 45000))
	product.ModelCode = "ZX-9"
	e := New()

	report := e.EvaluateProduct(product, nil)
	require.Len(t, report.Competitors, 1)
	assert.False(t, report.Competitors[0].IsRelevant)
	assert.Equal(t, model.ReasonModelCode, report.Competitors[0].RelevanceReason)
	assert.Equal(t, model.StatusWinning, report.Status.Status)

	set := model.NewOverrideSet([]model.Override{{Kind: model.OverrideInclusion, ProductID: "P1", ListingKey: "X1"}})
	report = e.EvaluateProduct(product, set)
	assert.True(t, report.Competitors[0].IsRelevant)
	assert.Equal(t, model.ReasonIncludedOverride, report.Competitors[0].RelevanceReason)
	assert.Equal(t, model.StatusLosing, report.Status.Status)
}

func TestEvaluateAccount_Idempotent(t *testing.T) {
	e := New()
	snapshot := accountSnapshot()
	opts := DefaultQueueOptions(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	opts.IncludeSameTotal = true
	opts.SortMode = model.SortByStale

	first := e.EvaluateAccount(snapshot, opts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.EvaluateAccount(snapshot, opts))
	}
}

func TestEvaluateAccount_Concurrent(t *testing.T) {
	e := New()
	snapshot := accountSnapshot()
	opts := DefaultQueueOptions(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	want := e.EvaluateAccount(snapshot, opts)

	results := make(chan AccountReport, 8)
	for i := 0; i < 8; i++ {
		go func() {
			results <- e.EvaluateAccount(snapshot, opts)
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-results)
	}
}
