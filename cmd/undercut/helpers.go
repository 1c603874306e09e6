package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Veraticus/undercut/internal/config"
	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/Veraticus/undercut/internal/service"
	"github.com/Veraticus/undercut/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// backupManager returns the backup manager of a SQLite-backed store.
func backupManager(store service.Storage) (*storage.BackupManager, error) {
	sqliteStore, ok := store.(*storage.SQLiteStorage)
	if !ok {
		return nil, fmt.Errorf("storage is not SQLite")
	}
	manager, err := sqliteStore.NewBackupManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create backup manager: %w", err)
	}
	return manager, nil
}

// newEngine builds an engine from the configured thresholds.
func newEngine() (*engine.Engine, error) {
	cfg, err := config.LoadEngineConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return engine.NewWithConfig(cfg), nil
}

// accountsFor returns the requested account, or every account when empty.
func accountsFor(ctx context.Context, store service.Storage, account string) ([]string, error) {
	if account != "" {
		return []string{account}, nil
	}
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// evaluate loads and evaluates one account.
func evaluate(ctx context.Context, store service.Storage, e *engine.Engine, accountID string, opts engine.QueueOptions) (engine.AccountReport, error) {
	snapshot, err := store.LoadAccountSnapshot(ctx, accountID)
	if err != nil {
		return engine.AccountReport{}, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return e.EvaluateAccount(*snapshot, opts), nil
}

// parseOptionalPct parses a percentage flag where "" means unset.
func parseOptionalPct(value, name string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	pct, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if pct < 0 {
		return nil, fmt.Errorf("%s cannot be negative", name)
	}
	return &pct, nil
}

// parsePrice parses a non-negative integer amount.
func parsePrice(value string) (int64, error) {
	price, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", value, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("price cannot be negative")
	}
	return price, nil
}

// queueItemView is the JSON shape of an action queue or locked view item.
type queueItemView struct {
	LastRefreshedAt *time.Time          `json:"last_refreshed_at"`
	ExposureRank    *int                `json:"exposure_rank"`
	PriceGapPct     *float64            `json:"price_gap_pct"`
	PriceGap        *int64              `json:"price_gap"`
	LowestTotal     *int64              `json:"lowest_total_price"`
	AccountID       string              `json:"account_id"`
	ProductID       string              `json:"product_id"`
	ProductName     string              `json:"product_name"`
	IssueType       model.IssueType     `json:"issue_type,omitempty"`
	Severity        model.Severity      `json:"severity,omitempty"`
	Freshness       model.FreshnessTier `json:"freshness_tier"`
	Status          model.Status        `json:"status,omitempty"`
	PriceLockReason string              `json:"price_lock_reason,omitempty"`
	SellingPrice    int64               `json:"selling_price"`
	IsPriceLocked   bool                `json:"is_price_locked"`
}

func toQueueViews(items []model.ActionQueueItem) []queueItemView {
	views := make([]queueItemView, 0, len(items))
	for _, item := range items {
		views = append(views, queueItemView{
			LastRefreshedAt: item.LastRefreshedAt,
			ExposureRank:    item.ExposureRank,
			PriceGapPct:     item.PriceGapPct,
			PriceGap:        item.PriceGap,
			LowestTotal:     item.LowestTotal,
			AccountID:       item.AccountID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			IssueType:       item.IssueType,
			Severity:        item.Severity,
			Freshness:       item.Freshness,
			Status:          item.Status,
			PriceLockReason: item.PriceLockReason,
			SellingPrice:    item.SellingPrice,
			IsPriceLocked:   item.IsPriceLocked,
		})
	}
	return views
}

// summaryView is the JSON shape of an account summary.
type summaryView struct {
	AccountID     string `json:"account_id"`
	Winning       int    `json:"winning"`
	Close         int    `json:"close"`
	Losing        int    `json:"losing"`
	NoCompetitors int    `json:"no_competitors"`
	Locked        int    `json:"locked"`
	Total         int    `json:"total"`
}

func toSummaryView(accountID string, s engine.Summary) summaryView {
	return summaryView{
		AccountID:     accountID,
		Winning:       s.Winning,
		Close:         s.Close,
		Losing:        s.Losing,
		NoCompetitors: s.NoCompetitors,
		Locked:        s.Locked,
		Total:         s.Total,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// validateFormat checks an --format flag.
func validateFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q (want table or json)", format)
	}
}
