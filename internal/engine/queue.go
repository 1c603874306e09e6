package engine

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

// QueueOptions configures one action queue build.
type QueueOptions struct {
	Now              time.Time
	SortMode         model.SortMode
	MinSeverity      model.Severity
	Limit            int
	IncludeSameTotal bool
}

// DefaultQueueOptions returns gap-sorted, losing-only, unlimited options
// evaluated at now.
func DefaultQueueOptions(now time.Time) QueueOptions {
	return QueueOptions{
		Now:         now,
		SortMode:    model.SortByGap,
		MinSeverity: model.SeverityWatch,
	}
}

// SeverityFor grades a losing gap percentage. A nil percentage means the
// cheapest competitor costs nothing, which is treated as critical.
func (c Config) SeverityFor(gapPct *float64) model.Severity {
	if gapPct == nil {
		return model.SeverityCritical
	}
	pct := math.Abs(*gapPct)
	switch {
	case pct >= c.CriticalGapPct:
		return model.SeverityCritical
	case pct >= c.HighGapPct:
		return model.SeverityHigh
	case pct >= c.MediumGapPct:
		return model.SeverityMedium
	default:
		return model.SeverityWatch
	}
}

// FreshnessFor buckets the time since the last data refresh. Data that was
// never refreshed is old.
func (c Config) FreshnessFor(lastRefreshed *time.Time, now time.Time) model.FreshnessTier {
	if lastRefreshed == nil {
		return model.FreshnessOld
	}
	age := now.Sub(*lastRefreshed)
	switch {
	case age >= c.OldAfter:
		return model.FreshnessOld
	case age >= c.StaleAfter:
		return model.FreshnessStale
	default:
		return model.FreshnessFresh
	}
}

// BuildQueue selects, grades, sorts and truncates the products that need
// operator action. Locked products and products without competitors never
// enter the queue.
func BuildQueue(reports []ProductReport, opts QueueOptions, cfg Config) []model.ActionQueueItem {
	if opts.SortMode == "" {
		opts.SortMode = model.SortByGap
	}

	items := make([]model.ActionQueueItem, 0)
	for _, report := range reports {
		if report.Product.IsPriceLocked || !report.Status.HasCompetitors() {
			continue
		}

		gap := *report.Status.PriceGap
		var item model.ActionQueueItem
		switch {
		case gap > 0:
			item = newQueueItem(report, opts.Now, cfg)
			item.IssueType = model.IssueLosing
			item.Severity = cfg.SeverityFor(report.Status.PriceGapPct)
		case gap == 0 && opts.IncludeSameTotal:
			item = newQueueItem(report, opts.Now, cfg)
			item.IssueType = model.IssueSameTotal
			item.Severity = model.SeverityWatch
		default:
			continue
		}

		if item.Severity.Weight() < opts.MinSeverity.Weight() {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return queueLess(items[i], items[j], opts.SortMode)
	})

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}

func queueLess(a, b model.ActionQueueItem, mode model.SortMode) bool {
	if a.IssueType != b.IssueType {
		return a.IssueType == model.IssueLosing
	}
	if mode == model.SortByStale && a.Freshness != b.Freshness {
		return a.Freshness.Order() < b.Freshness.Order()
	}
	if a.AbsGap() != b.AbsGap() {
		return a.AbsGap() > b.AbsGap()
	}
	if a.SortExposure() != b.SortExposure() {
		return a.SortExposure() < b.SortExposure()
	}
	return a.ProductID < b.ProductID
}

// LockedView lists every price-locked product, oldest data first and then
// by absolute gap, for operator visibility outside the action queue.
// Products without competitor data sort after the rest of their tier.
func LockedView(reports []ProductReport, now time.Time, cfg Config) []model.ActionQueueItem {
	items := make([]model.ActionQueueItem, 0)
	for _, report := range reports {
		if !report.Product.IsPriceLocked {
			continue
		}
		item := newQueueItem(report, now, cfg)
		if report.Status.PriceGap != nil {
			switch gap := *report.Status.PriceGap; {
			case gap > 0:
				item.IssueType = model.IssueLosing
				item.Severity = cfg.SeverityFor(report.Status.PriceGapPct)
			case gap == 0:
				item.IssueType = model.IssueSameTotal
				item.Severity = model.SeverityWatch
			}
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Freshness != b.Freshness {
			return a.Freshness.Order() < b.Freshness.Order()
		}
		if (a.PriceGap == nil) != (b.PriceGap == nil) {
			return b.PriceGap == nil
		}
		if a.AbsGap() != b.AbsGap() {
			return a.AbsGap() > b.AbsGap()
		}
		return a.ProductID < b.ProductID
	})
	return items
}

func newQueueItem(report ProductReport, now time.Time, cfg Config) model.ActionQueueItem {
	p := report.Product
	return model.ActionQueueItem{
		LastRefreshedAt: report.LastRefreshedAt,
		ExposureRank:    report.OwnExposureRank,
		PriceGapPct:     report.Status.PriceGapPct,
		PriceGap:        report.Status.PriceGap,
		LowestTotal:     report.Status.LowestTotal,
		ProductID:       p.ID,
		ProductName:     p.Name,
		AccountID:       p.AccountID,
		PriceLockReason: p.PriceLockReason,
		Freshness:       cfg.FreshnessFor(report.LastRefreshedAt, now),
		Status:          report.Status.Status,
		SellingPrice:    p.SellingPrice,
		IsPriceLocked:   p.IsPriceLocked,
	}
}
