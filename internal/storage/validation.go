// Package storage provides the data persistence layer for undercut.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidListing  = errors.New("invalid listing")
	ErrInvalidOverride = errors.New("invalid override")
	ErrInvalidCrawlRun = errors.New("invalid crawl run")
)

// Lookup errors. Each wraps common.ErrNotFound or common.ErrDuplicateEntry.
var (
	ErrProductNotFound  = fmt.Errorf("product %w", common.ErrNotFound)
	ErrKeywordNotFound  = fmt.Errorf("keyword %w", common.ErrNotFound)
	ErrOverrideNotFound = fmt.Errorf("override %w", common.ErrNotFound)
	ErrDuplicateKeyword = fmt.Errorf("keyword %w", common.ErrDuplicateEntry)
	ErrStaleCrawl       = errors.New("crawl is older than the stored crawl for this keyword")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateProduct(product *model.Product) error {
	if product == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if err := product.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	return nil
}

func validateOverride(override *model.Override) error {
	if override == nil {
		return fmt.Errorf("%w: override", ErrNilParameter)
	}
	if err := override.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOverride, err)
	}
	return nil
}

func validateCrawlRun(run model.CrawlRun) error {
	if run.CrawledAt.IsZero() {
		return fmt.Errorf("%w: missing crawled_at", ErrInvalidCrawlRun)
	}
	ranks := make(map[int]bool, len(run.Listings))
	for i := range run.Listings {
		listing := run.Listings[i]
		if err := listing.Validate(); err != nil {
			return fmt.Errorf("%w: listing at index %d: %w", ErrInvalidListing, i, err)
		}
		if ranks[listing.ExposureRank] {
			return fmt.Errorf("%w: duplicate exposure rank %d", ErrInvalidCrawlRun, listing.ExposureRank)
		}
		ranks[listing.ExposureRank] = true
	}
	return nil
}
