// Package metrics exposes Prometheus collectors for evaluation runs and
// crawl imports.
package metrics

import (
	"time"

	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics bundles Prometheus collectors for undercut.
type Metrics struct {
	Registry           *prometheus.Registry
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	ProductsByStatus   *prometheus.GaugeVec
	QueueItems         *prometheus.GaugeVec
	LockedProducts     *prometheus.GaugeVec
	ImportsTotal       *prometheus.CounterVec
	ListingsImported   prometheus.Counter
	NewlyQueuedTotal   *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undercut_evaluations_total",
			Help: "Account evaluations run, by outcome.",
		},
		[]string{"account", "outcome"},
	)
	evaluationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "undercut_evaluation_duration_seconds",
			Help:    "Time spent loading and evaluating one account.",
			Buckets: prometheus.DefBuckets,
		},
	)
	byStatus := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "undercut_products",
			Help: "Products per account by display status at the last evaluation.",
		},
		[]string{"account", "status"},
	)
	queueItems := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "undercut_queue_items",
			Help: "Action queue size per account by issue type and severity.",
		},
		[]string{"account", "issue_type", "severity"},
	)
	locked := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "undercut_locked_products",
			Help: "Price-locked products per account.",
		},
		[]string{"account"},
	)
	imports := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undercut_crawl_imports_total",
			Help: "Crawl documents imported, by result.",
		},
		[]string{"result"},
	)
	listings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "undercut_listings_imported_total",
			Help: "Listings written by crawl imports.",
		},
	)
	newlyQueued := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undercut_newly_queued_total",
			Help: "Products that entered the action queue since the previous watch cycle.",
		},
		[]string{"account"},
	)

	registry.MustRegister(
		evaluations, evaluationDuration, byStatus, queueItems, locked, imports, listings, newlyQueued,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:           registry,
		EvaluationsTotal:   evaluations,
		EvaluationDuration: evaluationDuration,
		ProductsByStatus:   byStatus,
		QueueItems:         queueItems,
		LockedProducts:     locked,
		ImportsTotal:       imports,
		ListingsImported:   listings,
		NewlyQueuedTotal:   newlyQueued,
	}
}

// ObserveEvaluation records a successful account evaluation and refreshes
// the per-account gauges from its report.
func (m *Metrics) ObserveEvaluation(report engine.AccountReport, d time.Duration) {
	if m == nil {
		return
	}
	account := report.AccountID

	m.EvaluationsTotal.WithLabelValues(account, "ok").Inc()
	m.EvaluationDuration.Observe(d.Seconds())

	s := report.Summary
	m.ProductsByStatus.WithLabelValues(account, string(model.StatusWinning)).Set(float64(s.Winning))
	m.ProductsByStatus.WithLabelValues(account, string(model.StatusClose)).Set(float64(s.Close))
	m.ProductsByStatus.WithLabelValues(account, string(model.StatusLosing)).Set(float64(s.Losing))
	m.ProductsByStatus.WithLabelValues(account, "no_competitors").Set(float64(s.NoCompetitors))
	m.LockedProducts.WithLabelValues(account).Set(float64(s.Locked))

	counts := make(map[[2]string]int)
	for _, issue := range []model.IssueType{model.IssueLosing, model.IssueSameTotal} {
		for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityWatch} {
			counts[[2]string{string(issue), string(sev)}] = 0
		}
	}
	for _, item := range report.Queue {
		counts[[2]string{string(item.IssueType), string(item.Severity)}]++
	}
	for key, n := range counts {
		m.QueueItems.WithLabelValues(account, key[0], key[1]).Set(float64(n))
	}
}

// IncEvaluationError records a failed account evaluation.
func (m *Metrics) IncEvaluationError(account string) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(account, "error").Inc()
}

// ObserveImport records one crawl document import.
func (m *Metrics) ObserveImport(listings int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ImportsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ImportsTotal.WithLabelValues("ok").Inc()
	m.ListingsImported.Add(float64(listings))
}

// AddNewlyQueued counts products that just entered an account's queue.
func (m *Metrics) AddNewlyQueued(account string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NewlyQueuedTotal.WithLabelValues(account).Add(float64(n))
}
