package engine

import (
	"testing"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		competitors []int64
		wantGap     *int64
		want        model.Status
		display     model.Status
		selling     int64
	}{
		{
			name:        "close but more expensive",
			selling:     50000,
			competitors: []int64{48000, 52000},
			want:        model.StatusClose,
			display:     model.StatusLosing,
			wantGap:     ptr(int64(2000)),
		},
		{
			name:    "no competitors",
			selling: 50000,
			want:    model.StatusWinning,
			display: model.StatusWinning,
		},
		{
			name:        "exact tie",
			selling:     50000,
			competitors: []int64{50000},
			want:        model.StatusWinning,
			display:     model.StatusWinning,
			wantGap:     ptr(int64(0)),
		},
		{
			name:        "cheaper than everyone",
			selling:     40000,
			competitors: []int64{48000, 52000},
			want:        model.StatusWinning,
			display:     model.StatusWinning,
			wantGap:     ptr(int64(-8000)),
		},
		{
			name:        "one unit more expensive",
			selling:     50001,
			competitors: []int64{50000},
			want:        model.StatusClose,
			display:     model.StatusLosing,
			wantGap:     ptr(int64(1)),
		},
		{
			name:        "at close threshold is losing",
			selling:     10500,
			competitors: []int64{10000},
			want:        model.StatusLosing,
			display:     model.StatusLosing,
			wantGap:     ptr(int64(500)),
		},
		{
			name:        "free competitor",
			selling:     100,
			competitors: []int64{0},
			want:        model.StatusLosing,
			display:     model.StatusLosing,
			wantGap:     ptr(int64(100)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := make([]model.Listing, 0, len(tt.competitors))
			for i, price := range tt.competitors {
				listings = append(listings, competitor(string(rune('A'+i)), i+1, price))
			}
			product := testProduct(tt.selling, listings...)

			got := ClassifyStatus(product, MergeCompetitors(product, nil), cfg)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.display, got.DisplayStatus())
			if tt.wantGap == nil {
				assert.Nil(t, got.PriceGap)
				assert.Nil(t, got.PriceGapPct)
				assert.False(t, got.HasCompetitors())
				return
			}
			require.NotNil(t, got.PriceGap)
			assert.Equal(t, *tt.wantGap, *got.PriceGap)
			assert.Equal(t, *tt.wantGap > 0, got.NeedsAction())
		})
	}
}

func TestClassifyStatus_ScenarioA(t *testing.T) {
	product := testProduct(50000, competitor("X1", 1, 48000), competitor("X2", 2, 52000))

	got := ClassifyStatus(product, MergeCompetitors(product, nil), DefaultConfig())
	require.NotNil(t, got.PriceGap)
	require.NotNil(t, got.PriceGapPct)
	require.NotNil(t, got.LowestTotal)
	assert.Equal(t, int64(48000), *got.LowestTotal)
	assert.Equal(t, int64(2000), *got.PriceGap)
	assert.InDelta(t, 4.1667, *got.PriceGapPct, 0.001)
	assert.Equal(t, model.StatusClose, got.Status)
	assert.Equal(t, model.StatusLosing, got.DisplayStatus())
	assert.Equal(t, model.SeverityMedium, DefaultConfig().SeverityFor(got.PriceGapPct))
}

func TestClassifyStatus_IgnoresOwnAndIrrelevantRows(t *testing.T) {
	product := testProduct(50000,
		ownListing(1, 30000),
		competitor("X1", 2, 20000),
		competitor("X2", 3, 49000),
	)
	set := model.NewOverrideSet([]model.Override{
		{Kind: model.OverrideExclusion, ProductID: "P1", ListingKey: "X1"},
	})

	got := ClassifyStatus(product, MergeCompetitors(product, set), DefaultConfig())
	require.NotNil(t, got.LowestTotal)
	assert.Equal(t, int64(49000), *got.LowestTotal)
	assert.Equal(t, int64(1000), *got.PriceGap)
}

func TestClassifyStatus_OnlyIrrelevantCompetitors(t *testing.T) {
	product := testProduct(50000, ownListing(1, 50000), competitor("X1", 2, 20000))
	product.SpecKeywords = []string{"titanium"}

	got := ClassifyStatus(product, MergeCompetitors(product, nil), DefaultConfig())
	assert.Equal(t, model.StatusWinning, got.Status)
	assert.Nil(t, got.PriceGap)
}

func TestClassifyStatus_CustomThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CloseThresholdPct = 1.0
	product := testProduct(50000, competitor("X1", 1, 48000))

	got := ClassifyStatus(product, MergeCompetitors(product, nil), cfg)
	assert.Equal(t, model.StatusLosing, got.Status)
}
