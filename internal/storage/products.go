package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

const productColumns = `id, account_id, name, selling_price, is_price_locked, price_lock_reason,
	price_filter_min_pct, price_filter_max_pct, model_code, spec_keywords, created_at, updated_at`

// SaveProduct inserts or updates a product's configuration. Keywords are
// managed separately and are not touched.
func (s *SQLiteStorage) SaveProduct(ctx context.Context, product *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	product.SpecKeywords = model.NormalizeSpecKeywords(product.SpecKeywords)
	specJSON, err := json.Marshal(product.SpecKeywords)
	if err != nil {
		return fmt.Errorf("failed to encode spec keywords: %w", err)
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if !product.IsPriceLocked {
		product.PriceLockReason = ""
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			selling_price = excluded.selling_price,
			is_price_locked = excluded.is_price_locked,
			price_lock_reason = excluded.price_lock_reason,
			price_filter_min_pct = excluded.price_filter_min_pct,
			price_filter_max_pct = excluded.price_filter_max_pct,
			model_code = excluded.model_code,
			spec_keywords = excluded.spec_keywords,
			updated_at = excluded.updated_at
	`,
		product.ID,
		product.AccountID,
		product.Name,
		product.SellingPrice,
		product.IsPriceLocked,
		product.PriceLockReason,
		nullFloat(product.PriceFilterMinPct),
		nullFloat(product.PriceFilterMaxPct),
		product.ModelCode,
		string(specJSON),
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	slog.Debug("saved product", "product_id", product.ID, "account_id", product.AccountID)
	return nil
}

// GetProduct returns a product with its keywords. Listings are not loaded.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	product, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	keywords, err := s.getKeywords(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	product.Keywords = keywords

	return product, nil
}

// ListProducts returns every product of an account, or of all accounts when
// accountID is empty, each with its keywords.
func (s *SQLiteStorage) ListProducts(ctx context.Context, accountID string) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	products, err := s.listProducts(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	keywords, err := s.keywordsByProduct(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Keywords = keywords[products[i].ID]
	}

	return products, nil
}

func (s *SQLiteStorage) listProducts(ctx context.Context, q queryable, accountID string) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY account_id, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// ListAccounts returns the distinct account ids that own at least one product.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT account_id FROM products ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// SetPriceLock locks or unlocks a product's price. Unlocking clears the reason.
func (s *SQLiteStorage) SetPriceLock(ctx context.Context, productID string, locked bool, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(productID, "productID"); err != nil {
		return err
	}
	if !locked {
		reason = ""
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET is_price_locked = ?, price_lock_reason = ?, updated_at = ?
		WHERE id = ?
	`, locked, reason, time.Now().UTC(), productID)
	if err != nil {
		return fmt.Errorf("failed to update price lock: %w", err)
	}

	return requireAffected(result, fmt.Errorf("%w: %s", ErrProductNotFound, productID))
}

// DeleteProduct removes a product together with its keywords, listings and overrides.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := requireAffected(result, fmt.Errorf("%w: %s", ErrProductNotFound, id)); err != nil {
		return err
	}

	slog.Info("deleted product", "product_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		product  model.Product
		minPct   sql.NullFloat64
		maxPct   sql.NullFloat64
		specJSON string
	)
	if err := row.Scan(
		&product.ID,
		&product.AccountID,
		&product.Name,
		&product.SellingPrice,
		&product.IsPriceLocked,
		&product.PriceLockReason,
		&minPct,
		&maxPct,
		&product.ModelCode,
		&specJSON,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}

	product.PriceFilterMinPct = floatPtr(minPct)
	product.PriceFilterMaxPct = floatPtr(maxPct)
	if specJSON != "" {
		if err := json.Unmarshal([]byte(specJSON), &product.SpecKeywords); err != nil {
			return nil, fmt.Errorf("failed to decode spec keywords for %s: %w", product.ID, err)
		}
	}

	return &product, nil
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
