// Package watch re-evaluates every account on a schedule, keeps the
// Prometheus gauges current and announces products that newly need a
// price change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/metrics"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/Veraticus/undercut/internal/service"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many accounts are evaluated at once.
const DefaultConcurrency = 4

// Config configures a Watcher.
type Config struct {
	// Queue is the template for each cycle's queue options; Now is replaced
	// with the cycle's start time.
	Queue       engine.QueueOptions
	Concurrency int
	TrackerSize int
}

// Cycle describes one evaluation pass over all accounts.
type Cycle struct {
	StartedAt   time.Time
	NewlyQueued []model.ActionQueueItem
	Reports     []engine.AccountReport
	Duration    time.Duration
}

// Queued returns the total queue size across accounts.
func (c Cycle) Queued() int {
	n := 0
	for _, r := range c.Reports {
		n += len(r.Queue)
	}
	return n
}

// Watcher periodically evaluates every account in storage.
type Watcher struct {
	store   service.Storage
	engine  *engine.Engine
	metrics *metrics.Metrics
	tracker *Tracker
	config  Config
	nowFunc func() time.Time
}

// New creates a watcher. m may be nil.
func New(store service.Storage, e *engine.Engine, m *metrics.Metrics, cfg Config) (*Watcher, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	tracker, err := NewTracker(cfg.TrackerSize)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:   store,
		engine:  e,
		metrics: m,
		tracker: tracker,
		config:  cfg,
		nowFunc: time.Now,
	}, nil
}

// RunOnce evaluates every account once. Accounts are evaluated
// concurrently; the first failure cancels the rest of the cycle.
func (w *Watcher) RunOnce(ctx context.Context) (Cycle, error) {
	started := w.nowFunc()
	opts := w.config.Queue
	opts.Now = started

	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return Cycle{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	reports := make([]engine.AccountReport, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)
	for i, account := range accounts {
		g.Go(func() error {
			begin := time.Now()
			snapshot, err := w.store.LoadAccountSnapshot(gctx, account)
			if err != nil {
				w.metrics.IncEvaluationError(account)
				return fmt.Errorf("failed to load account %s: %w", account, err)
			}
			reports[i] = w.engine.EvaluateAccount(*snapshot, opts)
			w.metrics.ObserveEvaluation(reports[i], time.Since(begin))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Cycle{}, err
	}

	cycle := Cycle{StartedAt: started, Reports: reports}
	for _, report := range reports {
		fresh := w.tracker.Observe(report.AccountID, report.Queue)
		w.metrics.AddNewlyQueued(report.AccountID, len(fresh))
		for _, item := range fresh {
			slog.Info("product needs a price change",
				"account_id", item.AccountID,
				"product_id", item.ProductID,
				"issue_type", item.IssueType,
				"severity", item.Severity,
				"price_gap", item.PriceGap,
				"lowest_total", item.LowestTotal)
		}
		cycle.NewlyQueued = append(cycle.NewlyQueued, fresh...)
	}
	cycle.Duration = w.nowFunc().Sub(started)
	return cycle, nil
}

// Run evaluates immediately and then every interval until ctx is done. A
// failed cycle is logged and retried at the next tick.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cycle, err := w.RunOnce(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && common.IsRetryable(err):
			slog.Warn("watch cycle failed, retrying at next tick", "error", err)
		case err != nil:
			slog.Error("watch cycle failed", "error", err)
		default:
			slog.Info("watch cycle complete",
				"accounts", len(cycle.Reports),
				"queued", cycle.Queued(),
				"newly_queued", len(cycle.NewlyQueued),
				"duration", cycle.Duration)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
