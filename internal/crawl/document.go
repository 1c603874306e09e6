// Package crawl decodes crawler result documents and imports them into storage.
package crawl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/google/uuid"
)

// Document is the wire form of one crawl run.
type Document struct {
	CrawledAt time.Time         `json:"crawled_at"`
	RunID     string            `json:"run_id,omitempty"`
	ProductID string            `json:"product_id"`
	Keyword   string            `json:"keyword"`
	Listings  []ListingDocument `json:"listings"`
}

// ListingDocument is the wire form of one listing.
type ListingDocument struct {
	ExternalProductID *string `json:"external_product_id,omitempty"`
	SellerName        string  `json:"seller_name"`
	Title             string  `json:"title"`
	ShippingFeeType   string  `json:"shipping_fee_type"`
	ExposureRank      int     `json:"exposure_rank"`
	ItemPrice         int64   `json:"item_price"`
	ShippingFee       int64   `json:"shipping_fee"`
	IsOwnListing      bool    `json:"is_own_listing"`
}

// Decode parses either a single crawl document or a JSON array of them.
func Decode(data []byte) ([]model.CrawlRun, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", common.ErrInvalidCrawl)
	}

	var docs []Document
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidCrawl, err)
		}
	} else {
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidCrawl, err)
		}
		docs = []Document{doc}
	}

	runs := make([]model.CrawlRun, 0, len(docs))
	for i, doc := range docs {
		run, err := doc.ToRun()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ToRun validates the document and converts it to a crawl run. A missing
// run id is replaced by a random UUID.
func (d Document) ToRun() (model.CrawlRun, error) {
	productID := strings.TrimSpace(d.ProductID)
	keyword := strings.TrimSpace(d.Keyword)
	switch {
	case productID == "":
		return model.CrawlRun{}, fmt.Errorf("%w: missing product_id", common.ErrInvalidCrawl)
	case keyword == "":
		return model.CrawlRun{}, fmt.Errorf("%w: missing keyword", common.ErrInvalidCrawl)
	case d.CrawledAt.IsZero():
		return model.CrawlRun{}, fmt.Errorf("%w: missing crawled_at", common.ErrInvalidCrawl)
	}

	runID := strings.TrimSpace(d.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	run := model.CrawlRun{
		RunID:     runID,
		ProductID: productID,
		Keyword:   keyword,
		CrawledAt: d.CrawledAt.UTC(),
		Listings:  make([]model.Listing, 0, len(d.Listings)),
	}
	for i, l := range d.Listings {
		listing := model.Listing{
			ExternalProductID: l.ExternalProductID,
			SellerName:        strings.TrimSpace(l.SellerName),
			Title:             strings.TrimSpace(l.Title),
			ShippingFeeType:   model.ParseShippingFeeType(l.ShippingFeeType),
			ExposureRank:      l.ExposureRank,
			ItemPrice:         l.ItemPrice,
			ShippingFee:       l.ShippingFee,
			IsOwnListing:      l.IsOwnListing,
		}
		if err := listing.Validate(); err != nil {
			return model.CrawlRun{}, fmt.Errorf("%w: listing %d: %w", common.ErrInvalidCrawl, i, err)
		}
		run.Listings = append(run.Listings, listing)
	}
	return run, nil
}
