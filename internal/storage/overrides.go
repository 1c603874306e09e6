package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

const overrideColumns = `o.kind, o.product_id, o.listing_key, o.shipping_fee, o.note, o.created_at`

// SaveOverride records an override, replacing any existing one of the same
// kind for the same product and listing.
func (s *SQLiteStorage) SaveOverride(ctx context.Context, override *model.Override) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOverride(override); err != nil {
		return err
	}
	override.ListingKey = model.NormalizeListingKey(override.ListingKey)
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}
	if override.Kind != model.OverrideShipping {
		override.ShippingFee = 0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overrides (kind, product_id, listing_key, shipping_fee, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, product_id, listing_key) DO UPDATE SET
			shipping_fee = excluded.shipping_fee,
			note = excluded.note,
			created_at = excluded.created_at
	`, string(override.Kind), override.ProductID, override.ListingKey, override.ShippingFee, override.Note, override.CreatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, override.ProductID)
	}
	if err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// GetOverride is a point lookup for one override.
func (s *SQLiteStorage) GetOverride(ctx context.Context, kind model.OverrideKind, productID, listingKey string) (*model.Override, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	listingKey = model.NormalizeListingKey(listingKey)
	if err := validateString(listingKey, "listingKey"); err != nil {
		return nil, err
	}

	override, err := scanOverride(s.db.QueryRowContext(ctx, `
		SELECT `+overrideColumns+`
		FROM overrides o
		WHERE o.kind = ? AND o.product_id = ? AND o.listing_key = ?
	`, string(kind), productID, listingKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s/%s", ErrOverrideNotFound, kind, productID, listingKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	return override, nil
}

// DeleteOverride removes one override.
func (s *SQLiteStorage) DeleteOverride(ctx context.Context, kind model.OverrideKind, productID, listingKey string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(productID, "productID"); err != nil {
		return err
	}
	listingKey = model.NormalizeListingKey(listingKey)
	if err := validateString(listingKey, "listingKey"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM overrides WHERE kind = ? AND product_id = ? AND listing_key = ?
	`, string(kind), productID, listingKey)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: %s %s/%s", ErrOverrideNotFound, kind, productID, listingKey))
}

// ListOverrides returns every override of a product, ordered by kind and key.
func (s *SQLiteStorage) ListOverrides(ctx context.Context, productID string) ([]model.Override, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+overrideColumns+`
		FROM overrides o
		WHERE o.product_id = ?
		ORDER BY o.kind, o.listing_key
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	return collectOverrides(rows)
}

func (s *SQLiteStorage) accountOverrides(ctx context.Context, q queryable, accountID string) ([]model.Override, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+overrideColumns+`
		FROM overrides o
		JOIN products p ON p.id = o.product_id
		WHERE p.account_id = ?
		ORDER BY o.product_id, o.kind, o.listing_key
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	return collectOverrides(rows)
}

func collectOverrides(rows *sql.Rows) ([]model.Override, error) {
	defer rows.Close()

	var overrides []model.Override
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, *override)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overrides: %w", err)
	}
	return overrides, nil
}

func scanOverride(row rowScanner) (*model.Override, error) {
	var (
		override model.Override
		kind     string
	)
	if err := row.Scan(
		&kind,
		&override.ProductID,
		&override.ListingKey,
		&override.ShippingFee,
		&override.Note,
		&override.CreatedAt,
	); err != nil {
		return nil, err
	}
	override.Kind = model.OverrideKind(kind)
	return &override, nil
}
