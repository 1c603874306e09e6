package engine

import (
	"strings"

	"github.com/Veraticus/undercut/internal/model"
)

// ClassifyRelevance decides whether a listing counts toward the product's
// competitiveness math. Manual overrides are checked before the automatic
// filters, and the first matching rule wins.
func ClassifyRelevance(listing model.Listing, product model.Product, ov Overrides) (bool, model.RelevanceReason) {
	if listing.IsOwnListing {
		return true, model.ReasonNone
	}

	ov = orNone(ov)
	key := listing.Key()

	// Exclusion beats inclusion when an operator has recorded both.
	if ov.IsExcluded(product.ID, key) {
		return false, model.ReasonManualBlacklist
	}
	if ov.IsIncluded(product.ID, key) {
		return true, model.ReasonIncludedOverride
	}

	if reason := priceRangeReason(listing, product, ov); reason != model.ReasonNone {
		return false, reason
	}

	title := strings.ToLower(listing.Title)

	if code := strings.TrimSpace(product.ModelCode); code != "" {
		if !strings.Contains(title, strings.ToLower(code)) {
			return false, model.ReasonModelCode
		}
	}

	for _, kw := range product.SpecKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if !strings.Contains(title, strings.ToLower(kw)) {
			return false, model.ReasonSpecKeywords
		}
	}

	return true, model.ReasonNone
}

// priceRangeReason applies the min and max filters independently, so a
// contradictory pair rejects every listing instead of failing.
func priceRangeReason(listing model.Listing, product model.Product, ov Overrides) model.RelevanceReason {
	if product.PriceFilterMinPct == nil && product.PriceFilterMaxPct == nil {
		return model.ReasonNone
	}

	total := float64(TotalPrice(listing, product.ID, ov))
	selling := float64(product.SellingPrice)

	if product.PriceFilterMinPct != nil && total < selling*(*product.PriceFilterMinPct)/100 {
		return model.ReasonPriceFilterMin
	}
	if product.PriceFilterMaxPct != nil && total > selling*(*product.PriceFilterMaxPct)/100 {
		return model.ReasonPriceFilterMax
	}
	return model.ReasonNone
}

// Annotate returns a copy of the listing with its relevance and override
// flags filled in.
func Annotate(listing model.Listing, product model.Product, ov Overrides) model.Listing {
	ov = orNone(ov)
	relevant, reason := ClassifyRelevance(listing, product, ov)
	listing.IsRelevant = relevant
	listing.RelevanceReason = reason

	if listing.IsOwnListing {
		listing.HasInclusionOverride = false
		listing.HasShippingOverride = false
		return listing
	}

	key := listing.Key()
	listing.HasInclusionOverride = ov.IsIncluded(product.ID, key)
	_, listing.HasShippingOverride = ov.ShippingFee(product.ID, key)
	return listing
}
