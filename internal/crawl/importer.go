package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/metrics"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/Veraticus/undercut/internal/service"
	"github.com/Veraticus/undercut/internal/storage"
)

// Result describes one imported crawl run.
type Result struct {
	RunID          string
	ProductID      string
	Keyword        string
	KeywordID      int64
	Listings       int
	KeywordCreated bool
}

// Importer writes crawl runs into storage, replacing each keyword's listings.
type Importer struct {
	store   service.Storage
	fetcher *Fetcher
	metrics *metrics.Metrics
	// AutoCreateKeywords adds keywords the product does not track yet.
	AutoCreateKeywords bool
}

// NewImporter creates an importer. fetcher and m may be nil.
func NewImporter(store service.Storage, fetcher *Fetcher, m *metrics.Metrics) *Importer {
	return &Importer{
		store:              store,
		fetcher:            fetcher,
		metrics:            m,
		AutoCreateKeywords: true,
	}
}

// ImportLocation fetches and imports every crawl run found at location.
func (i *Importer) ImportLocation(ctx context.Context, location string) ([]Result, error) {
	if i.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", common.ErrMissingConfig)
	}

	data, err := i.fetcher.Fetch(ctx, location)
	if err != nil {
		i.metrics.ObserveImport(0, err)
		return nil, err
	}

	results, err := i.ImportDocument(ctx, data)
	if err != nil {
		return results, fmt.Errorf("%s: %w", location, err)
	}
	return results, nil
}

// ImportDocument decodes and imports raw crawl JSON. Runs are imported in
// order; the first failure stops the import and is returned together with
// the results of the runs already written.
func (i *Importer) ImportDocument(ctx context.Context, data []byte) ([]Result, error) {
	runs, err := Decode(data)
	if err != nil {
		i.metrics.ObserveImport(0, err)
		return nil, err
	}

	results := make([]Result, 0, len(runs))
	for _, run := range runs {
		result, err := i.ImportRun(ctx, run)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ImportRun writes one decoded crawl run.
func (i *Importer) ImportRun(ctx context.Context, run model.CrawlRun) (Result, error) {
	result, err := i.importRun(ctx, run)
	i.metrics.ObserveImport(result.Listings, err)
	if err != nil {
		return result, fmt.Errorf("run %s (%s/%q): %w", run.RunID, run.ProductID, run.Keyword, err)
	}

	slog.Info("imported crawl run",
		"run_id", result.RunID,
		"product_id", result.ProductID,
		"keyword", result.Keyword,
		"listings", result.Listings,
		"keyword_created", result.KeywordCreated)
	return result, nil
}

func (i *Importer) importRun(ctx context.Context, run model.CrawlRun) (Result, error) {
	result := Result{RunID: run.RunID, ProductID: run.ProductID, Keyword: run.Keyword}

	if _, err := i.store.GetProduct(ctx, run.ProductID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return result, fmt.Errorf("%w: %s", common.ErrUnknownProduct, run.ProductID)
		}
		return result, err
	}

	keyword, err := i.store.FindKeyword(ctx, run.ProductID, run.Keyword)
	switch {
	case errors.Is(err, storage.ErrKeywordNotFound) && i.AutoCreateKeywords:
		keyword, err = i.store.AddKeyword(ctx, run.ProductID, run.Keyword)
		if err != nil {
			return result, err
		}
		result.KeywordCreated = true
	case err != nil:
		return result, err
	}
	result.KeywordID = keyword.ID

	if err := i.store.ReplaceListings(ctx, keyword.ID, run); err != nil {
		return result, err
	}
	result.Listings = len(run.Listings)
	return result, nil
}
