package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/undercut/internal/model"
)

const listingColumns = `l.id, l.keyword_id, l.exposure_rank, l.external_product_id, l.seller_name,
	l.title, l.item_price, l.shipping_fee, l.shipping_fee_type, l.is_own_listing`

// ReplaceListings swaps a keyword's listings for those of a crawl run and
// records the crawl time. A run older than the stored crawl is rejected with
// ErrStaleCrawl; re-importing the same run is a no-op in effect.
func (s *SQLiteStorage) ReplaceListings(ctx context.Context, keywordID int64, run model.CrawlRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCrawlRun(run); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var last sql.NullTime
		err := tx.QueryRowContext(ctx, `SELECT last_crawled_at FROM keywords WHERE id = ?`, keywordID).Scan(&last)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrKeywordNotFound, keywordID)
		}
		if err != nil {
			return fmt.Errorf("failed to read keyword: %w", err)
		}
		if last.Valid && run.CrawledAt.Before(last.Time) {
			return fmt.Errorf("%w: run %s crawled at %s, stored crawl at %s",
				ErrStaleCrawl, run.RunID, run.CrawledAt.Format("2006-01-02T15:04:05Z07:00"), last.Time.Format("2006-01-02T15:04:05Z07:00"))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE keyword_id = ?`, keywordID); err != nil {
			return fmt.Errorf("failed to clear listings: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO listings (
				keyword_id, exposure_rank, external_product_id, seller_name, title,
				item_price, shipping_fee, shipping_fee_type, is_own_listing
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() {
			if closeErr := stmt.Close(); closeErr != nil {
				slog.Error("failed to close statement", "error", closeErr)
			}
		}()

		for _, listing := range run.Listings {
			if _, err := stmt.ExecContext(ctx,
				keywordID,
				listing.ExposureRank,
				nullString(listing.ExternalProductID),
				listing.SellerName,
				listing.Title,
				listing.ItemPrice,
				listing.ShippingFee,
				string(model.ParseShippingFeeType(string(listing.ShippingFeeType))),
				listing.IsOwnListing,
			); err != nil {
				return fmt.Errorf("failed to insert listing at rank %d: %w", listing.ExposureRank, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE keywords SET last_crawled_at = ?, last_run_id = ? WHERE id = ?
		`, run.CrawledAt.UTC(), run.RunID, keywordID); err != nil {
			return fmt.Errorf("failed to record crawl: %w", err)
		}

		slog.Debug("replaced listings",
			"keyword_id", keywordID,
			"run_id", run.RunID,
			"count", len(run.Listings))
		return nil
	})
}

// GetListings returns a keyword's listings in exposure order.
func (s *SQLiteStorage) GetListings(ctx context.Context, keywordID int64) ([]model.Listing, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings l
		WHERE l.keyword_id = ?
		ORDER BY l.exposure_rank, l.id
	`, keywordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return collectListings(rows)
}

// listingsByKeyword loads every listing of an account grouped by keyword id.
func (s *SQLiteStorage) listingsByKeyword(ctx context.Context, q queryable, accountID string) (map[int64][]model.Listing, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings l
		JOIN keywords k ON k.id = l.keyword_id
		JOIN products p ON p.id = k.product_id
		WHERE p.account_id = ?
		ORDER BY l.keyword_id, l.exposure_rank, l.id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	listings, err := collectListings(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int64][]model.Listing)
	for _, listing := range listings {
		grouped[listing.KeywordID] = append(grouped[listing.KeywordID], listing)
	}
	return grouped, nil
}

func collectListings(rows *sql.Rows) ([]model.Listing, error) {
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var (
			listing    model.Listing
			externalID sql.NullString
			feeType    string
		)
		if err := rows.Scan(
			&listing.ID,
			&listing.KeywordID,
			&listing.ExposureRank,
			&externalID,
			&listing.SellerName,
			&listing.Title,
			&listing.ItemPrice,
			&listing.ShippingFee,
			&feeType,
			&listing.IsOwnListing,
		); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if externalID.Valid {
			id := externalID.String
			listing.ExternalProductID = &id
		}
		listing.ShippingFeeType = model.ParseShippingFeeType(feeType)
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
