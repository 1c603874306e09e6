package model

import (
	"fmt"
	"strings"
)

// ShippingFeeType describes how the crawler resolved a listing's shipping fee.
type ShippingFeeType string

const (
	// ShippingFree means the listing ships for free.
	ShippingFree ShippingFeeType = "free"
	// ShippingKnown means the crawler read an explicit shipping fee.
	ShippingKnown ShippingFeeType = "known"
	// ShippingUnknown means no fee could be detected.
	ShippingUnknown ShippingFeeType = "unknown"
	// ShippingError means fee detection failed during the crawl.
	ShippingError ShippingFeeType = "error"
)

// ParseShippingFeeType maps a crawler-supplied string onto a known type.
// Anything unrecognised degrades to ShippingUnknown.
func ParseShippingFeeType(s string) ShippingFeeType {
	switch ShippingFeeType(strings.ToLower(strings.TrimSpace(s))) {
	case ShippingFree:
		return ShippingFree
	case ShippingKnown:
		return ShippingKnown
	case ShippingError:
		return ShippingError
	default:
		return ShippingUnknown
	}
}

// IsResolved reports whether the fee is a trustworthy number.
func (t ShippingFeeType) IsResolved() bool {
	return t == ShippingFree || t == ShippingKnown
}

// RelevanceReason explains why a listing was dropped from, or forced into,
// the competitor set.
type RelevanceReason string

const (
	// ReasonNone is the zero value for listings that passed every check.
	ReasonNone RelevanceReason = ""
	// ReasonManualBlacklist marks an operator exclusion.
	ReasonManualBlacklist RelevanceReason = "manual_blacklist"
	// ReasonIncludedOverride marks an operator inclusion.
	ReasonIncludedOverride RelevanceReason = "included_override"
	// ReasonPriceFilterMin marks a total below the product's lower bound.
	ReasonPriceFilterMin RelevanceReason = "price_filter_min"
	// ReasonPriceFilterMax marks a total above the product's upper bound.
	ReasonPriceFilterMax RelevanceReason = "price_filter_max"
	// ReasonModelCode marks a title missing the product's model code.
	ReasonModelCode RelevanceReason = "model_code"
	// ReasonSpecKeywords marks a title missing one of the spec keywords.
	ReasonSpecKeywords RelevanceReason = "spec_keywords"
)

// Listing is one seller's offer for a product under one tracked keyword.
type Listing struct {
	ExternalProductID    *string
	SellerName           string
	Title                string
	ShippingFeeType      ShippingFeeType
	RelevanceReason      RelevanceReason
	ID                   int64
	KeywordID            int64
	ExposureRank         int
	ItemPrice            int64
	ShippingFee          int64
	IsOwnListing         bool
	IsRelevant           bool
	HasInclusionOverride bool
	HasShippingOverride  bool
}

// Key returns the identity used for overrides and cross-keyword merging.
// Listings without an external product id fall back to seller and title,
// which may occasionally over- or under-merge.
func (l Listing) Key() string {
	return ListingKey(l.ExternalProductID, l.SellerName, l.Title)
}

// ListingKey builds a listing identity from its parts.
func ListingKey(externalID *string, sellerName, title string) string {
	if externalID != nil {
		if id := strings.TrimSpace(*externalID); id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s%s|%s", fallbackKeyPrefix,
		strings.ToLower(strings.TrimSpace(sellerName)),
		strings.ToLower(strings.TrimSpace(title)))
}

const fallbackKeyPrefix = "seller:"

// NormalizeListingKey rewrites an operator-typed identity into the spelling
// Key produces: external ids are trimmed, seller/title fallbacks are trimmed
// and lowercased part by part.
func NormalizeListingKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) < len(fallbackKeyPrefix) || !strings.EqualFold(key[:len(fallbackKeyPrefix)], fallbackKeyPrefix) {
		return key
	}
	seller, title, _ := strings.Cut(key[len(fallbackKeyPrefix):], "|")
	return ListingKey(nil, seller, title)
}

// Validate ensures the listing carries the fields the engine relies on.
func (l *Listing) Validate() error {
	if l.ExposureRank < 1 {
		return fmt.Errorf("exposure rank must be 1 or greater, got %d", l.ExposureRank)
	}
	if strings.TrimSpace(l.SellerName) == "" {
		return fmt.Errorf("seller name is required")
	}
	if l.ItemPrice < 0 {
		return fmt.Errorf("item price cannot be negative")
	}
	if l.ShippingFee < 0 {
		return fmt.Errorf("shipping fee cannot be negative")
	}
	return nil
}
