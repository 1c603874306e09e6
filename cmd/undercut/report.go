package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/config"
	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/Veraticus/undercut/internal/service"
	"github.com/Veraticus/undercut/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	var (
		keyword string
		order   string
	)

	cmd := &cobra.Command{
		Use:   "report <product-id>",
		Short: "Show a product's status and ranked competitors",
		Long: `Show where a product stands: its status, gap to the cheapest relevant
competitor, and the ranked competitor table merged across all keywords.

With --keyword, show a single keyword's listings instead, ordered by search
exposure or by total price.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			keywordOrder, err := engine.ParseKeywordOrder(order)
			if err != nil {
				return err
			}
			e, err := newEngine()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			product, overrides, err := loadProduct(ctx, store, args[0])
			if err != nil {
				return err
			}

			if keyword == "" {
				return cli.RenderProduct(os.Stdout, e.EvaluateProduct(*product, overrides), time.Now())
			}

			for _, kw := range product.Keywords {
				if strings.EqualFold(kw.Text, strings.TrimSpace(keyword)) {
					fmt.Println(cli.FormatTitle(fmt.Sprintf("%s / %q by %s", product.ID, kw.Text, keywordOrder)))
					return cli.RenderCompetitors(os.Stdout, engine.RankKeyword(kw, *product, overrides, keywordOrder))
				}
			}
			return common.NewUserError(
				fmt.Sprintf("product %s does not track keyword %q", product.ID, keyword),
				storage.ErrKeywordNotFound)
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Show one keyword's listings only")
	cmd.Flags().StringVar(&order, "order", string(engine.OrderByExposure), "Keyword listing order (exposure, price)")

	return cmd
}

// loadProduct returns a product with its crawled listings and the overrides
// of its account.
func loadProduct(ctx context.Context, store service.Storage, productID string) (*model.Product, model.OverrideSet, error) {
	p, err := store.GetProduct(ctx, productID)
	if err != nil {
		return nil, model.OverrideSet{}, err
	}
	snapshot, err := store.LoadAccountSnapshot(ctx, p.AccountID)
	if err != nil {
		return nil, model.OverrideSet{}, err
	}
	for i := range snapshot.Products {
		if snapshot.Products[i].ID == p.ID {
			return &snapshot.Products[i], model.NewOverrideSet(snapshot.Overrides), nil
		}
	}
	return nil, model.OverrideSet{}, fmt.Errorf("product %s vanished from account %s", p.ID, p.AccountID)
}

// accountReports evaluates every requested account.
func accountReports(ctx context.Context, accountID string, opts engine.QueueOptions) ([]engine.AccountReport, error) {
	e, err := newEngine()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	accounts, err := accountsFor(ctx, store, accountID)
	if err != nil {
		return nil, err
	}

	reports := make([]engine.AccountReport, 0, len(accounts))
	for _, account := range accounts {
		report, err := evaluate(ctx, store, e, account, opts)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func queueCmd() *cobra.Command {
	var (
		accountID string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show products that need a price change, most urgent first",
		Long: `List every unlocked product that is more expensive than its cheapest
relevant competitor. Losing items come before exact ties. Within each group
items are ordered by gap size (--sort gap) or by data staleness and then gap
size (--sort stale), then by search exposure.

Exact ties are hidden unless --include-same-total is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			now := time.Now()
			opts, err := config.LoadQueueOptions(viper.GetViper(), now)
			if err != nil {
				return err
			}

			reports, err := accountReports(cmd.Context(), accountID, opts)
			if err != nil {
				return err
			}

			if format == "json" {
				var items []model.ActionQueueItem
				for _, r := range reports {
					items = append(items, r.Queue...)
				}
				return printJSON(toQueueViews(items))
			}

			for _, r := range reports {
				fmt.Println(cli.FormatTitle(fmt.Sprintf("Action queue for %s (%d)", r.AccountID, len(r.Queue))))
				if err := cli.RenderQueue(os.Stdout, r.Queue, now); err != nil {
					return err
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Only show this account (default: all accounts)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	cmd.Flags().Bool("include-same-total", false, "Also queue products that tie the cheapest competitor")
	cmd.Flags().String("sort", string(model.SortByGap), "Secondary ordering (gap, stale)")
	cmd.Flags().String("min-severity", string(model.SeverityWatch), "Hide items below this severity (critical, high, medium, watch)")
	cmd.Flags().Int("limit", 0, "Show at most this many items per account (0 for all)")
	_ = viper.BindPFlag(config.KeyIncludeSameTotal, cmd.Flags().Lookup("include-same-total"))
	_ = viper.BindPFlag(config.KeySortMode, cmd.Flags().Lookup("sort"))
	_ = viper.BindPFlag(config.KeyMinSeverity, cmd.Flags().Lookup("min-severity"))
	_ = viper.BindPFlag(config.KeyLimit, cmd.Flags().Lookup("limit"))

	return cmd
}

func lockedCmd() *cobra.Command {
	var (
		accountID string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "locked",
		Short: "Show price-locked products with their current gap",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			now := time.Now()

			reports, err := accountReports(cmd.Context(), accountID, engine.DefaultQueueOptions(now))
			if err != nil {
				return err
			}

			if format == "json" {
				var items []model.ActionQueueItem
				for _, r := range reports {
					items = append(items, r.Locked...)
				}
				return printJSON(toQueueViews(items))
			}

			for _, r := range reports {
				fmt.Println(cli.FormatTitle(fmt.Sprintf("Locked products for %s (%d)", r.AccountID, len(r.Locked))))
				if err := cli.RenderLocked(os.Stdout, r.Locked, now); err != nil {
					return err
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Only show this account (default: all accounts)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")

	return cmd
}

func summaryCmd() *cobra.Command {
	var (
		accountID string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count products by status per account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			reports, err := accountReports(cmd.Context(), accountID, engine.DefaultQueueOptions(time.Now()))
			if err != nil {
				return err
			}

			if format == "json" {
				views := make([]summaryView, 0, len(reports))
				for _, r := range reports {
					views = append(views, toSummaryView(r.AccountID, r.Summary))
				}
				return printJSON(views)
			}

			if len(reports) == 0 {
				fmt.Println(cli.InfoStyle.Render("No accounts yet. Use 'undercut products add' to track a product."))
				return nil
			}
			for _, r := range reports {
				if err := cli.RenderSummary(os.Stdout, r.AccountID, r.Summary); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Only show this account (default: all accounts)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")

	return cmd
}
