// Package testutil provides test utilities for undercut: an isolated, migrated
// database and a fluent seeder for products, keywords, crawls and overrides.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/model"
	"github.com/Veraticus/undercut/internal/service"
	"github.com/Veraticus/undercut/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory, migrated test database that is closed
// when the test finishes.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.Product("P1", "acct-1", 50000).
//		Keyword("usb hub", crawledAt,
//			testutil.Offer("X1", 1, 48000),
//			testutil.OwnOffer(2, 50000)).
//		Exclude("X9")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// ProductSeed adds keywords, crawls and overrides to a seeded product.
type ProductSeed struct {
	db      *TestDB
	Product *model.Product
}

// Product seeds a product with the given selling price.
func (db *TestDB) Product(id, accountID string, sellingPrice int64) *ProductSeed {
	db.t.Helper()

	product := &model.Product{
		ID:           id,
		AccountID:    accountID,
		Name:         "Product " + id,
		SellingPrice: sellingPrice,
	}
	return db.SaveProduct(product)
}

// SaveProduct seeds a fully specified product.
func (db *TestDB) SaveProduct(product *model.Product) *ProductSeed {
	db.t.Helper()

	if err := db.Storage.SaveProduct(context.Background(), product); err != nil {
		db.t.Fatalf("failed to seed product %q: %v", product.ID, err)
	}
	return &ProductSeed{db: db, Product: product}
}

// Keyword adds a keyword and imports one crawl of the given listings for it.
func (p *ProductSeed) Keyword(text string, crawledAt time.Time, listings ...model.Listing) *ProductSeed {
	p.db.t.Helper()
	ctx := context.Background()

	kw, err := p.db.Storage.AddKeyword(ctx, p.Product.ID, text)
	if err != nil {
		p.db.t.Fatalf("failed to seed keyword %q: %v", text, err)
	}

	if crawledAt.IsZero() {
		return p
	}

	run := model.CrawlRun{
		RunID:     "seed-" + text,
		ProductID: p.Product.ID,
		Keyword:   text,
		CrawledAt: crawledAt,
		Listings:  listings,
	}
	if err := p.db.Storage.ReplaceListings(ctx, kw.ID, run); err != nil {
		p.db.t.Fatalf("failed to seed listings for %q: %v", text, err)
	}
	return p
}

// Exclude records an exclusion override.
func (p *ProductSeed) Exclude(listingKey string) *ProductSeed {
	return p.override(model.Override{Kind: model.OverrideExclusion, ListingKey: listingKey})
}

// Include records an inclusion override.
func (p *ProductSeed) Include(listingKey string) *ProductSeed {
	return p.override(model.Override{Kind: model.OverrideInclusion, ListingKey: listingKey})
}

// Shipping records a manual shipping fee.
func (p *ProductSeed) Shipping(listingKey string, fee int64) *ProductSeed {
	return p.override(model.Override{Kind: model.OverrideShipping, ListingKey: listingKey, ShippingFee: fee})
}

// Lock locks the product's price.
func (p *ProductSeed) Lock(reason string) *ProductSeed {
	p.db.t.Helper()

	if err := p.db.Storage.SetPriceLock(context.Background(), p.Product.ID, true, reason); err != nil {
		p.db.t.Fatalf("failed to lock %q: %v", p.Product.ID, err)
	}
	p.Product.IsPriceLocked = true
	p.Product.PriceLockReason = reason
	return p
}

func (p *ProductSeed) override(o model.Override) *ProductSeed {
	p.db.t.Helper()

	o.ProductID = p.Product.ID
	if err := p.db.Storage.SaveOverride(context.Background(), &o); err != nil {
		p.db.t.Fatalf("failed to seed %s override for %q: %v", o.Kind, o.ListingKey, err)
	}
	return p
}

// Offer builds a competitor listing with free shipping.
func Offer(externalID string, rank int, price int64) model.Listing {
	id := externalID
	return model.Listing{
		ExternalProductID: &id,
		SellerName:        "seller-" + externalID,
		Title:             "Listing " + externalID,
		ExposureRank:      rank,
		ItemPrice:         price,
		ShippingFeeType:   model.ShippingFree,
	}
}

// OwnOffer builds the seller's own listing.
func OwnOffer(rank int, price int64) model.Listing {
	l := Offer("OWN", rank, price)
	l.SellerName = "my-shop"
	l.IsOwnListing = true
	return l
}
