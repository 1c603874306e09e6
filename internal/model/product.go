// Package model defines the core domain types for price competitiveness tracking.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Keyword is a search term tracked for a product, together with the
// listings returned by its most recent crawl.
type Keyword struct {
	CreatedAt     time.Time
	LastCrawledAt *time.Time
	ProductID     string
	Text          string
	LastRunID     string
	Listings      []Listing
	ID            int64
}

// Product is a seller's tracked item.
type Product struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PriceFilterMinPct *float64
	PriceFilterMaxPct *float64
	ID                string
	AccountID         string
	Name              string
	PriceLockReason   string
	ModelCode         string
	SpecKeywords      []string
	Keywords          []Keyword
	SellingPrice      int64
	IsPriceLocked     bool
}

// Validate ensures the product configuration is coherent.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(p.AccountID) == "" {
		return fmt.Errorf("account id is required")
	}
	if p.SellingPrice < 0 {
		return fmt.Errorf("selling price cannot be negative")
	}
	if p.PriceFilterMinPct != nil && *p.PriceFilterMinPct < 0 {
		return fmt.Errorf("price filter min cannot be negative")
	}
	if p.PriceFilterMaxPct != nil && *p.PriceFilterMaxPct < 0 {
		return fmt.Errorf("price filter max cannot be negative")
	}
	if p.PriceFilterMinPct != nil && p.PriceFilterMaxPct != nil && *p.PriceFilterMinPct > *p.PriceFilterMaxPct {
		return fmt.Errorf("price filter min (%.1f%%) must be less than or equal to max (%.1f%%)",
			*p.PriceFilterMinPct, *p.PriceFilterMaxPct)
	}
	return nil
}

// LastRefreshedAt returns the most recent crawl time across the product's
// keywords, or nil when no keyword has been crawled yet.
func (p *Product) LastRefreshedAt() *time.Time {
	var latest *time.Time
	for i := range p.Keywords {
		crawled := p.Keywords[i].LastCrawledAt
		if crawled == nil {
			continue
		}
		if latest == nil || crawled.After(*latest) {
			t := *crawled
			latest = &t
		}
	}
	return latest
}

// NormalizeSpecKeywords trims, drops empties and removes case-insensitive
// duplicates while keeping the first spelling and the original order.
func NormalizeSpecKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	result := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		folded := strings.ToLower(kw)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		result = append(result, kw)
	}
	return result
}
