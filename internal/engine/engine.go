// Package engine implements the competitiveness ranking and action queue
// engine. Everything here is a pure function of its inputs: no I/O, no
// caches, no shared mutable state.
package engine

import (
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

// ProductReport is the computed view of one product.
type ProductReport struct {
	LastRefreshedAt *time.Time
	OwnExposureRank *int
	Competitors     []model.CompetitorRow
	Product         model.Product
	Status          model.StatusResult
}

// IsClassified reports whether a status was computed. Locked products keep
// their gap for the locked view but carry no status.
func (r ProductReport) IsClassified() bool {
	return r.Status.Status != ""
}

// Summary counts an account's products by displayed status. Close counts
// stored close verdicts, which are also counted in Losing because any
// positive gap is displayed as losing.
type Summary struct {
	Winning       int
	Close         int
	Losing        int
	NoCompetitors int
	Locked        int
	Total         int
}

// AccountReport is the computed view of one account.
type AccountReport struct {
	AccountID string
	Products  []ProductReport
	Queue     []model.ActionQueueItem
	Locked    []model.ActionQueueItem
	Summary   Summary
}

// Engine evaluates snapshots with a fixed configuration. It is safe for
// concurrent use.
type Engine struct {
	config Config
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config Config) *Engine {
	return &Engine{config: config}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.config
}

// EvaluateProduct merges, ranks and classifies one product.
func (e *Engine) EvaluateProduct(product model.Product, ov Overrides) ProductReport {
	rows := RankCompetitors(MergeCompetitors(product, ov))

	report := ProductReport{
		LastRefreshedAt: product.LastRefreshedAt(),
		OwnExposureRank: bestOwnExposure(product),
		Competitors:     rows,
		Product:         product,
	}

	if product.IsPriceLocked {
		report.Status = measureGap(product, rows)
		return report
	}

	report.Status = ClassifyStatus(product, rows, e.config)
	return report
}

// EvaluateAccount evaluates every product of an account snapshot and builds
// its action queue, locked view and summary.
func (e *Engine) EvaluateAccount(snapshot model.AccountSnapshot, opts QueueOptions) AccountReport {
	overrides := model.NewOverrideSet(snapshot.Overrides)

	reports := make([]ProductReport, 0, len(snapshot.Products))
	for _, product := range snapshot.Products {
		reports = append(reports, e.EvaluateProduct(product, overrides))
	}

	return AccountReport{
		AccountID: snapshot.AccountID,
		Products:  reports,
		Queue:     BuildQueue(reports, opts, e.config),
		Locked:    LockedView(reports, opts.Now, e.config),
		Summary:   Summarize(reports),
	}
}

// Summarize counts products by displayed status.
func Summarize(reports []ProductReport) Summary {
	var s Summary
	for _, r := range reports {
		s.Total++
		switch {
		case r.Product.IsPriceLocked:
			s.Locked++
		case !r.Status.HasCompetitors():
			s.NoCompetitors++
		default:
			if r.Status.Status == model.StatusClose {
				s.Close++
			}
			switch r.Status.DisplayStatus() {
			case model.StatusWinning:
				s.Winning++
			case model.StatusLosing:
				s.Losing++
			}
		}
	}
	return s
}

// bestOwnExposure returns the best search position of any own listing.
func bestOwnExposure(product model.Product) *int {
	var best *int
	for _, kw := range product.Keywords {
		for _, listing := range kw.Listings {
			if !listing.IsOwnListing || listing.ExposureRank < 1 {
				continue
			}
			if best == nil || listing.ExposureRank < *best {
				rank := listing.ExposureRank
				best = &rank
			}
		}
	}
	return best
}
