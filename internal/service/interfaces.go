// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Product operations
	SaveProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, accountID string) ([]model.Product, error)
	ListAccounts(ctx context.Context) ([]string, error)
	SetPriceLock(ctx context.Context, productID string, locked bool, reason string) error
	DeleteProduct(ctx context.Context, id string) error

	// Keyword operations
	AddKeyword(ctx context.Context, productID, text string) (*model.Keyword, error)
	GetKeywords(ctx context.Context, productID string) ([]model.Keyword, error)
	FindKeyword(ctx context.Context, productID, text string) (*model.Keyword, error)
	DeleteKeyword(ctx context.Context, id int64) error

	// Listing operations
	ReplaceListings(ctx context.Context, keywordID int64, run model.CrawlRun) error
	GetListings(ctx context.Context, keywordID int64) ([]model.Listing, error)

	// Override operations
	SaveOverride(ctx context.Context, override *model.Override) error
	GetOverride(ctx context.Context, kind model.OverrideKind, productID, listingKey string) (*model.Override, error)
	DeleteOverride(ctx context.Context, kind model.OverrideKind, productID, listingKey string) error
	ListOverrides(ctx context.Context, productID string) ([]model.Override, error)

	// Snapshot loads every product, keyword, listing and override of an account.
	LoadAccountSnapshot(ctx context.Context, accountID string) (*model.AccountSnapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
