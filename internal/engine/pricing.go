package engine

import (
	"github.com/Veraticus/undercut/internal/model"
)

// Shipping is a listing's resolved shipping fee.
type Shipping struct {
	Type       model.ShippingFeeType
	Fee        int64
	IsOverride bool
}

// ResolveShipping picks the shipping fee used for totals. A manual override
// always wins and counts as known. Unknown and error fees count as zero but
// keep their type so the row still shows as uncertain. Own listings are
// never overridden.
func ResolveShipping(listing model.Listing, productID string, ov Overrides) Shipping {
	if !listing.IsOwnListing {
		if fee, ok := orNone(ov).ShippingFee(productID, listing.Key()); ok {
			return Shipping{Fee: fee, Type: model.ShippingKnown, IsOverride: true}
		}
	}

	feeType := model.ParseShippingFeeType(string(listing.ShippingFeeType))
	switch feeType {
	case model.ShippingFree:
		return Shipping{Fee: 0, Type: feeType}
	case model.ShippingKnown:
		return Shipping{Fee: listing.ShippingFee, Type: feeType}
	default:
		return Shipping{Fee: 0, Type: feeType}
	}
}

// TotalPrice is the item price plus the resolved shipping fee.
func TotalPrice(listing model.Listing, productID string, ov Overrides) int64 {
	return listing.ItemPrice + ResolveShipping(listing, productID, ov).Fee
}

// BuildRow annotates a listing and projects it onto a competitor row.
// The row is left unranked.
func BuildRow(listing model.Listing, product model.Product, ov Overrides) model.CompetitorRow {
	annotated := Annotate(listing, product, ov)
	shipping := ResolveShipping(listing, product.ID, ov)

	return model.CompetitorRow{
		ExternalProductID:  listing.ExternalProductID,
		ListingKey:         listing.Key(),
		SellerName:         listing.SellerName,
		Title:              listing.Title,
		ShippingFeeType:    shipping.Type,
		RelevanceReason:    annotated.RelevanceReason,
		KeywordID:          listing.KeywordID,
		ListingID:          listing.ID,
		ItemPrice:          listing.ItemPrice,
		ShippingFee:        shipping.Fee,
		TotalPrice:         listing.ItemPrice + shipping.Fee,
		ExposureRank:       listing.ExposureRank,
		IsOwn:              listing.IsOwnListing,
		IsRelevant:         annotated.IsRelevant,
		ShippingOverridden: shipping.IsOverride,
	}
}

// MergeCompetitors builds the cross-keyword competitor set of a product:
// one row per distinct listing identity plus one row for the seller's best
// own listing. An identity is represented by its cheapest relevant
// occurrence; one with no relevant occurrence keeps its cheapest
// occurrence as an irrelevant row. Ties go to the better exposure rank.
func MergeCompetitors(product model.Product, ov Overrides) []model.CompetitorRow {
	var (
		own   *model.CompetitorRow
		order []string
		byKey = make(map[string]model.CompetitorRow)
	)

	for _, kw := range product.Keywords {
		for _, listing := range kw.Listings {
			if listing.KeywordID == 0 {
				listing.KeywordID = kw.ID
			}
			row := BuildRow(listing, product, ov)

			if row.IsOwn {
				if own == nil || cheaper(row, *own) {
					r := row
					own = &r
				}
				continue
			}

			current, ok := byKey[row.ListingKey]
			if !ok {
				order = append(order, row.ListingKey)
				byKey[row.ListingKey] = row
				continue
			}
			if preferRow(row, current) {
				byKey[row.ListingKey] = row
			}
		}
	}

	rows := make([]model.CompetitorRow, 0, len(order)+1)
	if own != nil {
		rows = append(rows, *own)
	}
	for _, key := range order {
		rows = append(rows, byKey[key])
	}
	return rows
}

// preferRow reports whether candidate should replace current as the
// representative occurrence of one identity.
func preferRow(candidate, current model.CompetitorRow) bool {
	if candidate.IsRelevant != current.IsRelevant {
		return candidate.IsRelevant
	}
	return cheaper(candidate, current)
}

func cheaper(a, b model.CompetitorRow) bool {
	if a.TotalPrice != b.TotalPrice {
		return a.TotalPrice < b.TotalPrice
	}
	return a.ExposureRank < b.ExposureRank
}
