package model

import "time"

// AccountSnapshot is everything the engine needs to evaluate one account,
// captured at one point in time.
type AccountSnapshot struct {
	CapturedAt time.Time
	AccountID  string
	Products   []Product
	Overrides  []Override
}

// CrawlRun is one complete crawler result for one keyword of one product.
// Importing a run replaces that keyword's listings wholesale.
type CrawlRun struct {
	CrawledAt time.Time
	RunID     string
	ProductID string
	Keyword   string
	Listings  []Listing
}
