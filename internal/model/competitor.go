package model

// CompetitorRow is one entry of a ranked competitor table: either a merged
// competing entity or the seller's own best listing.
type CompetitorRow struct {
	ExternalProductID  *string
	ListingKey         string
	SellerName         string
	Title              string
	ShippingFeeType    ShippingFeeType
	RelevanceReason    RelevanceReason
	KeywordID          int64
	ListingID          int64
	ItemPrice          int64
	ShippingFee        int64
	TotalPrice         int64
	Rank               int
	ExposureRank       int
	IsOwn              bool
	IsRelevant         bool
	ShippingOverridden bool
}

// IsRanked reports whether the row took part in ranking.
func (r CompetitorRow) IsRanked() bool {
	return r.Rank > 0
}

// Status is the three-state competitiveness verdict of a product.
type Status string

const (
	// StatusWinning means the seller is at or below the cheapest competitor,
	// or no competitor exists.
	StatusWinning Status = "winning"
	// StatusClose means the seller is more expensive by less than the close threshold.
	StatusClose Status = "close"
	// StatusLosing means the seller is more expensive by at least the close threshold.
	StatusLosing Status = "losing"
)

// StatusResult is the outcome of classifying one product.
type StatusResult struct {
	PriceGap    *int64
	PriceGapPct *float64
	LowestTotal *int64
	Status      Status
}

// HasCompetitors reports whether a gap could be computed.
func (r StatusResult) HasCompetitors() bool {
	return r.PriceGap != nil
}

// DisplayStatus is the status shown to operators. A stored close verdict
// with any positive gap is shown as losing, since any amount more
// expensive needs action.
func (r StatusResult) DisplayStatus() Status {
	if r.Status == StatusClose && r.PriceGap != nil && *r.PriceGap > 0 {
		return StatusLosing
	}
	return r.Status
}

// NeedsAction reports whether the seller is strictly more expensive.
func (r StatusResult) NeedsAction() bool {
	return r.PriceGap != nil && *r.PriceGap > 0
}
