package model

import (
	"fmt"
	"strings"
	"time"
)

// IssueType classifies why a product is in the action queue.
type IssueType string

const (
	// IssueLosing means the seller is strictly more expensive.
	IssueLosing IssueType = "losing"
	// IssueSameTotal means the seller ties the cheapest competitor exactly.
	IssueSameTotal IssueType = "same_total"
)

// Severity grades how urgently a queued product needs a price change.
type Severity string

const (
	// SeverityCritical is a gap of at least the critical threshold.
	SeverityCritical Severity = "critical"
	// SeverityHigh is a gap of at least the high threshold.
	SeverityHigh Severity = "high"
	// SeverityMedium is a gap of at least the medium threshold.
	SeverityMedium Severity = "medium"
	// SeverityWatch is everything else, including exact ties.
	SeverityWatch Severity = "watch"
)

// Weight orders severities; higher is more urgent.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a severity name. The empty string means watch.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityWatch, "":
		return SeverityWatch, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want critical, high, medium or watch)", s)
	}
}

// FreshnessTier buckets how long ago a product's data was refreshed.
type FreshnessTier string

const (
	// FreshnessOld is data older than the old threshold, or never crawled.
	FreshnessOld FreshnessTier = "old"
	// FreshnessStale is data older than the stale threshold.
	FreshnessStale FreshnessTier = "stale"
	// FreshnessFresh is recent data.
	FreshnessFresh FreshnessTier = "fresh"
)

// Order sorts tiers so the oldest data comes first.
func (f FreshnessTier) Order() int {
	switch f {
	case FreshnessOld:
		return 0
	case FreshnessStale:
		return 1
	default:
		return 2
	}
}

// SortMode selects the secondary ordering of the action queue.
type SortMode string

const (
	// SortByGap orders by absolute price gap, largest first.
	SortByGap SortMode = "gap"
	// SortByStale orders by data freshness tier before the gap.
	SortByStale SortMode = "stale"
)

// ParseSortMode parses a sort mode name. The empty string means gap.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortByGap, "":
		return SortByGap, nil
	case SortByStale:
		return SortByStale, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q (want gap or stale)", s)
	}
}

// UnrankedExposure is the exposure rank used for sorting products whose own
// listing was not found in any keyword.
const UnrankedExposure = 999

// ActionQueueItem is a computed, never persisted, projection of a product
// needing operator attention.
type ActionQueueItem struct {
	LastRefreshedAt *time.Time
	ExposureRank    *int
	PriceGapPct     *float64
	PriceGap        *int64
	LowestTotal     *int64
	ProductID       string
	ProductName     string
	AccountID       string
	PriceLockReason string
	IssueType       IssueType
	Severity        Severity
	Freshness       FreshnessTier
	Status          Status
	SellingPrice    int64
	IsPriceLocked   bool
}

// AbsGap returns the absolute price gap, or zero when unknown.
func (i ActionQueueItem) AbsGap() int64 {
	if i.PriceGap == nil {
		return 0
	}
	if *i.PriceGap < 0 {
		return -*i.PriceGap
	}
	return *i.PriceGap
}

// SortExposure returns the exposure rank used for tie-breaking.
func (i ActionQueueItem) SortExposure() int {
	if i.ExposureRank == nil {
		return UnrankedExposure
	}
	return *i.ExposureRank
}
