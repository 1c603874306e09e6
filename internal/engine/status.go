package engine

import (
	"github.com/Veraticus/undercut/internal/model"
)

// LowestCompetitorTotal returns the cheapest total among relevant rows that
// are not the seller's own.
func LowestCompetitorTotal(rows []model.CompetitorRow) (int64, bool) {
	var (
		lowest int64
		found  bool
	)
	for _, row := range rows {
		if row.IsOwn || !row.IsRelevant {
			continue
		}
		if !found || row.TotalPrice < lowest {
			lowest = row.TotalPrice
			found = true
		}
	}
	return lowest, found
}

// measureGap computes the gap between the selling price and the cheapest
// competitor. The percentage is nil when the cheapest total is zero.
func measureGap(product model.Product, rows []model.CompetitorRow) model.StatusResult {
	lowest, ok := LowestCompetitorTotal(rows)
	if !ok {
		return model.StatusResult{}
	}

	gap := product.SellingPrice - lowest
	result := model.StatusResult{
		PriceGap:    &gap,
		LowestTotal: &lowest,
	}
	if lowest != 0 {
		pct := float64(gap) / float64(lowest) * 100
		result.PriceGapPct = &pct
	}
	return result
}

// ClassifyStatus derives the product's competitiveness verdict from the gap
// between its selling price and the cheapest relevant competitor. With no
// competitor the product is winning with a nil gap.
func ClassifyStatus(product model.Product, rows []model.CompetitorRow, cfg Config) model.StatusResult {
	result := measureGap(product, rows)

	switch {
	case result.PriceGap == nil, *result.PriceGap <= 0:
		result.Status = model.StatusWinning
	case result.PriceGapPct != nil && *result.PriceGapPct < cfg.CloseThresholdPct:
		result.Status = model.StatusClose
	default:
		result.Status = model.StatusLosing
	}
	return result
}
