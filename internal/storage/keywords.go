package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

const keywordColumns = `k.id, k.product_id, k.text, k.last_crawled_at, k.last_run_id, k.created_at`

// AddKeyword starts tracking a search keyword for a product. Keyword text is
// unique per product, ignoring case.
func (s *SQLiteStorage) AddKeyword(ctx context.Context, productID, text string) (*model.Keyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if err := validateString(text, "text"); err != nil {
		return nil, err
	}

	keyword := &model.Keyword{
		ProductID: productID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO keywords (product_id, text, created_at)
		VALUES (?, ?, ?)
	`, productID, text, keyword.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return nil, fmt.Errorf("%w: %q for product %s", ErrDuplicateKeyword, text, productID)
	case isForeignKeyViolation(err):
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	case err != nil:
		return nil, fmt.Errorf("failed to add keyword: %w", err)
	}

	keyword.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword id: %w", err)
	}

	return keyword, nil
}

// GetKeywords returns a product's keywords in creation order, without listings.
func (s *SQLiteStorage) GetKeywords(ctx context.Context, productID string) ([]model.Keyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	return s.getKeywords(ctx, s.db, productID)
}

func (s *SQLiteStorage) getKeywords(ctx context.Context, q queryable, productID string) ([]model.Keyword, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+keywordColumns+`
		FROM keywords k
		WHERE k.product_id = ?
		ORDER BY k.id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	return collectKeywords(rows)
}

// keywordsByProduct loads the keywords of every product in an account (or
// all accounts when accountID is empty), grouped by product id.
func (s *SQLiteStorage) keywordsByProduct(ctx context.Context, q queryable, accountID string) (map[string][]model.Keyword, error) {
	query := `SELECT ` + keywordColumns + ` FROM keywords k JOIN products p ON p.id = k.product_id`
	var args []any
	if accountID != "" {
		query += ` WHERE p.account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY k.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	keywords, err := collectKeywords(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.Keyword)
	for _, kw := range keywords {
		grouped[kw.ProductID] = append(grouped[kw.ProductID], kw)
	}
	return grouped, nil
}

// FindKeyword looks up a product's keyword by text, ignoring case.
func (s *SQLiteStorage) FindKeyword(ctx context.Context, productID, text string) (*model.Keyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if err := validateString(text, "text"); err != nil {
		return nil, err
	}

	keyword, err := scanKeyword(s.db.QueryRowContext(ctx, `
		SELECT `+keywordColumns+`
		FROM keywords k
		WHERE k.product_id = ? AND k.text = ?
	`, productID, text))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q for product %s", ErrKeywordNotFound, text, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find keyword: %w", err)
	}
	return keyword, nil
}

// DeleteKeyword stops tracking a keyword and drops its listings.
func (s *SQLiteStorage) DeleteKeyword(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: id %d", ErrKeywordNotFound, id))
}

func collectKeywords(rows *sql.Rows) ([]model.Keyword, error) {
	defer rows.Close()

	var keywords []model.Keyword
	for rows.Next() {
		keyword, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, *keyword)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}
	return keywords, nil
}

func scanKeyword(row rowScanner) (*model.Keyword, error) {
	var (
		keyword model.Keyword
		crawled sql.NullTime
	)
	if err := row.Scan(
		&keyword.ID,
		&keyword.ProductID,
		&keyword.Text,
		&crawled,
		&keyword.LastRunID,
		&keyword.CreatedAt,
	); err != nil {
		return nil, err
	}
	if crawled.Valid {
		t := crawled.Time
		keyword.LastCrawledAt = &t
	}
	return &keyword, nil
}
