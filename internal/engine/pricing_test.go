package engine

import (
	"testing"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShipping(t *testing.T) {
	tests := []struct {
		name      string
		feeType   model.ShippingFeeType
		overrides []model.Override
		want      Shipping
		reported  int64
		own       bool
	}{
		{
			name:     "free ignores reported fee",
			feeType:  model.ShippingFree,
			reported: 500,
			want:     Shipping{Fee: 0, Type: model.ShippingFree},
		},
		{
			name:     "known uses reported fee",
			feeType:  model.ShippingKnown,
			reported: 2500,
			want:     Shipping{Fee: 2500, Type: model.ShippingKnown},
		},
		{
			name:     "unknown counts as zero but keeps type",
			feeType:  model.ShippingUnknown,
			reported: 2500,
			want:     Shipping{Fee: 0, Type: model.ShippingUnknown},
		},
		{
			name:     "error counts as zero but keeps type",
			feeType:  model.ShippingError,
			reported: 2500,
			want:     Shipping{Fee: 0, Type: model.ShippingError},
		},
		{
			name:     "unrecognised type degrades to unknown",
			feeType:  model.ShippingFeeType("calculated-at-checkout"),
			reported: 2500,
			want:     Shipping{Fee: 0, Type: model.ShippingUnknown},
		},
		{
			name:      "override wins over known fee",
			feeType:   model.ShippingKnown,
			reported:  2500,
			overrides: []model.Override{{Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: 4000}},
			want:      Shipping{Fee: 4000, Type: model.ShippingKnown, IsOverride: true},
		},
		{
			name:      "own listing is never overridden",
			feeType:   model.ShippingFree,
			own:       true,
			overrides: []model.Override{{Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: 4000}},
			want:      Shipping{Fee: 0, Type: model.ShippingFree},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := competitor("X1", 1, 10000)
			listing.ShippingFeeType = tt.feeType
			listing.ShippingFee = tt.reported
			listing.IsOwnListing = tt.own

			got := ResolveShipping(listing, "P1", model.NewOverrideSet(tt.overrides))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 10000+tt.want.Fee, TotalPrice(listing, "P1", model.NewOverrideSet(tt.overrides)))
		})
	}
}

func TestShippingOverrideChangesRanking(t *testing.T) {
	unknown := competitor("X1", 1, 20000)
	unknown.ShippingFeeType = model.ShippingUnknown
	other := competitor("X2", 2, 21000)
	product := testProduct(22000, unknown, other)

	rows := RankCompetitors(MergeCompetitors(product, model.OverrideSet{}))
	require.Len(t, rows, 2)
	assert.Equal(t, "X1", rows[0].ListingKey)
	assert.Equal(t, int64(20000), rows[0].TotalPrice)
	assert.Equal(t, model.ShippingUnknown, rows[0].ShippingFeeType)

	set := model.NewOverrideSet([]model.Override{
		{Kind: model.OverrideShipping, ProductID: "P1", ListingKey: "X1", ShippingFee: 3000},
	})
	rows = RankCompetitors(MergeCompetitors(product, set))
	require.Len(t, rows, 2)
	assert.Equal(t, "X2", rows[0].ListingKey)
	assert.Equal(t, "X1", rows[1].ListingKey)
	assert.Equal(t, int64(23000), rows[1].TotalPrice)
	assert.True(t, rows[1].ShippingOverridden)
	assert.Equal(t, model.ShippingKnown, rows[1].ShippingFeeType)
}

func TestMergeCompetitors(t *testing.T) {
	crawledProduct := testProduct(30000)
	second := crawledProduct.Keywords[0]
	second.ID = 2
	second.Text = "widget 2m"

	crawledProduct.Keywords[0].Listings = []model.Listing{
		ownListing(3, 30000),
		competitor("X1", 1, 28000),
		competitor("X2", 2, 29000),
	}
	second.Listings = []model.Listing{
		ownListing(1, 30000),
		competitor("X1", 5, 27500),
		competitor("X2", 1, 29000),
		{SellerName: "Corner Store", Title: "AB-100 widget", ExposureRank: 6, ItemPrice: 31000, ShippingFeeType: model.ShippingFree},
		{SellerName: "corner store", Title: "ab-100 WIDGET", ExposureRank: 7, ItemPrice: 30500, ShippingFeeType: model.ShippingFree},
	}
	crawledProduct.Keywords = append(crawledProduct.Keywords, second)

	rows := MergeCompetitors(crawledProduct, nil)
	require.Len(t, rows, 4)

	byKey := make(map[string]model.CompetitorRow)
	ownRows := 0
	for _, row := range rows {
		if row.IsOwn {
			ownRows++
			assert.Equal(t, 1, row.ExposureRank, "own row breaks price ties by exposure")
			assert.Equal(t, int64(2), row.KeywordID)
			continue
		}
		byKey[row.ListingKey] = row
	}
	assert.Equal(t, 1, ownRows)

	assert.Equal(t, int64(27500), byKey["X1"].TotalPrice, "cheapest occurrence wins")
	assert.Equal(t, int64(2), byKey["X1"].KeywordID)
	assert.Equal(t, 1, byKey["X2"].ExposureRank, "price tie goes to better exposure")

	fallback := model.ListingKey(nil, "corner store", "ab-100 widget")
	require.Contains(t, byKey, fallback)
	assert.Equal(t, int64(30500), byKey[fallback].TotalPrice)
}

func TestMergeCompetitors_PrefersRelevantOccurrence(t *testing.T) {
	product := testProduct(30000)
	product.PriceFilterMinPct = ptr(50.0)

	cheapButFiltered := competitor("X1", 1, 9000)
	relevant := competitor("X1", 4, 26000)
	relevant.KeywordID = 2
	product.Keywords[0].Listings = []model.Listing{cheapButFiltered, relevant}

	rows := MergeCompetitors(product, nil)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsRelevant)
	assert.Equal(t, int64(26000), rows[0].TotalPrice)

	product.Keywords[0].Listings = []model.Listing{cheapButFiltered}
	rows = MergeCompetitors(product, nil)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsRelevant)
	assert.Equal(t, model.ReasonPriceFilterMin, rows[0].RelevanceReason)
}
