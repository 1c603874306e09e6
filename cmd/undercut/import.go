package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/config"
	"github.com/Veraticus/undercut/internal/crawl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	var noCreate bool

	cmd := &cobra.Command{
		Use:   "import <file|url|->...",
		Short: "Import crawl results",
		Long: `Import crawler output for one or more keywords. Each location is a
JSON file, an HTTP(S) URL, or "-" for stdin, holding one crawl document or
an array of them. Importing a crawl replaces that keyword's listings.

Keywords that are not tracked yet are added automatically unless
--no-create-keywords is given. Crawls older than the stored crawl for the
same keyword are rejected.`,
		Example: `  # Import a crawl written by the crawler
  undercut import runs/2026-10-14/P1-usb-hub.json

  # Import everything the crawler published
  undercut import https://crawler.internal/runs/latest.json

  # Pipe a crawl in
  crawler run P1 | undercut import -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			importer := crawl.NewImporter(store, crawl.NewFetcher(viper.GetDuration(config.KeyImportTimeout)), nil)
			importer.AutoCreateKeywords = !noCreate

			var progress *cli.Progress
			if len(args) > 1 {
				progress = cli.NewProgress(os.Stderr, len(args), "Importing crawls...")
			}

			var (
				errs     []error
				runs     int
				listings int
				created  int
			)
			for _, location := range args {
				if ctx.Err() != nil {
					errs = append(errs, ctx.Err())
					break
				}
				results, err := importer.ImportLocation(ctx, location)
				for _, r := range results {
					runs++
					listings += r.Listings
					if r.KeywordCreated {
						created++
					}
				}
				if err != nil {
					errs = append(errs, err)
				}
				progress.Step()
			}
			progress.Finish()

			summary := fmt.Sprintf("  • Crawl runs: %d\n", runs) +
				fmt.Sprintf("  • Listings:   %d\n", listings) +
				fmt.Sprintf("  • New keywords: %d", created)
			if len(errs) > 0 {
				summary += fmt.Sprintf("\n  • Failures:   %d", len(errs))
			}
			fmt.Println(cli.RenderBox("Import Complete", summary))

			for _, err := range errs {
				fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d location(s) failed: %w", len(errs), len(args), errors.Join(errs...))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCreate, "no-create-keywords", false, "Reject crawls for keywords that are not tracked yet")
	cmd.Flags().Duration("timeout", 0, "HTTP timeout per request (default from import.timeout)")
	_ = viper.BindPFlag(config.KeyImportTimeout, cmd.Flags().Lookup("timeout"))

	return cmd
}
