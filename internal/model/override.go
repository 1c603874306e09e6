package model

import (
	"fmt"
	"strings"
	"time"
)

// OverrideKind identifies one of the three operator override types.
type OverrideKind string

const (
	// OverrideExclusion removes a listing from consideration.
	OverrideExclusion OverrideKind = "exclusion"
	// OverrideInclusion re-admits a listing the automatic filters rejected.
	OverrideInclusion OverrideKind = "inclusion"
	// OverrideShipping supplies a manual shipping fee.
	OverrideShipping OverrideKind = "shipping"
)

// Override is an operator-supplied exception for one listing identity of
// one product. ShippingFee is only meaningful for OverrideShipping.
type Override struct {
	CreatedAt   time.Time
	Kind        OverrideKind
	ProductID   string
	ListingKey  string
	Note        string
	ShippingFee int64
}

// Validate ensures the override is well formed.
func (o *Override) Validate() error {
	switch o.Kind {
	case OverrideExclusion, OverrideInclusion, OverrideShipping:
	default:
		return fmt.Errorf("unknown override kind %q", o.Kind)
	}
	if strings.TrimSpace(o.ProductID) == "" {
		return fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(o.ListingKey) == "" {
		return fmt.Errorf("listing key is required")
	}
	if o.Kind == OverrideShipping && o.ShippingFee < 0 {
		return fmt.Errorf("shipping fee cannot be negative")
	}
	return nil
}

// OverrideKey addresses an override by product and listing identity.
type OverrideKey struct {
	ProductID  string
	ListingKey string
}

// OverrideSet is an immutable-by-convention snapshot of every override for
// an account. The zero value is an empty set.
type OverrideSet struct {
	exclusions map[OverrideKey]bool
	inclusions map[OverrideKey]bool
	shipping   map[OverrideKey]int64
}

// NewOverrideSet indexes the given override records under their normalized
// listing keys. Later records of the same kind and key replace earlier ones.
func NewOverrideSet(overrides []Override) OverrideSet {
	set := OverrideSet{
		exclusions: make(map[OverrideKey]bool),
		inclusions: make(map[OverrideKey]bool),
		shipping:   make(map[OverrideKey]int64),
	}
	for _, o := range overrides {
		key := OverrideKey{ProductID: o.ProductID, ListingKey: NormalizeListingKey(o.ListingKey)}
		switch o.Kind {
		case OverrideExclusion:
			set.exclusions[key] = true
		case OverrideInclusion:
			set.inclusions[key] = true
		case OverrideShipping:
			set.shipping[key] = o.ShippingFee
		}
	}
	return set
}

// IsExcluded reports whether an exclusion exists for the listing.
func (s OverrideSet) IsExcluded(productID, listingKey string) bool {
	return s.exclusions[OverrideKey{ProductID: productID, ListingKey: listingKey}]
}

// IsIncluded reports whether an inclusion override exists for the listing.
func (s OverrideSet) IsIncluded(productID, listingKey string) bool {
	return s.inclusions[OverrideKey{ProductID: productID, ListingKey: listingKey}]
}

// ShippingFee returns the manual shipping fee for the listing, if any.
func (s OverrideSet) ShippingFee(productID, listingKey string) (int64, bool) {
	fee, ok := s.shipping[OverrideKey{ProductID: productID, ListingKey: listingKey}]
	return fee, ok
}

// Len returns the total number of override records in the set.
func (s OverrideSet) Len() int {
	return len(s.exclusions) + len(s.inclusions) + len(s.shipping)
}
