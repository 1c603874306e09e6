package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/config"
	"github.com/Veraticus/undercut/internal/metrics"
	"github.com/Veraticus/undercut/internal/watch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func watchCmd() *cobra.Command {
	var (
		once        bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate every account on a schedule and serve metrics",
		Long: `Evaluate every account now and then every --interval, logging each
product that newly needs a price change. Queue sizes, status counts, and
evaluation timings are served as Prometheus metrics on --metrics-addr.

Run the crawler and 'undercut import' on their own schedule; watch only
reads what has been imported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, err := newEngine()
			if err != nil {
				return err
			}
			opts, err := config.LoadQueueOptions(viper.GetViper(), time.Now())
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			m := metrics.New()
			w, err := watch.New(store, e, m, watch.Config{Queue: opts, Concurrency: concurrency})
			if err != nil {
				return err
			}

			if once {
				cycle, err := w.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Evaluated %d account(s): %d queued, %d new",
					len(cycle.Reports), cycle.Queued(), len(cycle.NewlyQueued))))
				return nil
			}

			if addr := viper.GetString(config.KeyMetricsAddr); addr != "" {
				server := &http.Server{
					Addr:              addr,
					Handler:           promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("metrics server failed", slog.Any("error", err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Shutdown(shutdownCtx)
				}()
				slog.Info("metrics server enabled", slog.String("addr", addr))
			}

			interval := viper.GetDuration(config.KeyWatchInterval)
			slog.Info("watching accounts", "interval", interval)
			return w.Run(ctx, interval)
		},
	}

	cmd.Flags().Duration("interval", 0, "Time between evaluations (default from watch.interval)")
	cmd.Flags().String("metrics-addr", "", "Address to serve /metrics on; empty to disable (default from metrics.addr)")
	cmd.Flags().BoolVar(&once, "once", false, "Evaluate once and exit")
	cmd.Flags().IntVar(&concurrency, "concurrency", watch.DefaultConcurrency, "Accounts evaluated in parallel")
	_ = viper.BindPFlag(config.KeyWatchInterval, cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag(config.KeyMetricsAddr, cmd.Flags().Lookup("metrics-addr"))

	return cmd
}
