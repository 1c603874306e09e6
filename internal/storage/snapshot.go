package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

// LoadAccountSnapshot reads an account's products, keywords, listings and
// overrides inside one read transaction so the engine sees a consistent view.
func (s *SQLiteStorage) LoadAccountSnapshot(ctx context.Context, accountID string) (*model.AccountSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	snapshot := &model.AccountSnapshot{AccountID: accountID}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		products, err := s.listProducts(ctx, tx, accountID)
		if err != nil {
			return err
		}
		keywords, err := s.keywordsByProduct(ctx, tx, accountID)
		if err != nil {
			return err
		}
		listings, err := s.listingsByKeyword(ctx, tx, accountID)
		if err != nil {
			return err
		}
		overrides, err := s.accountOverrides(ctx, tx, accountID)
		if err != nil {
			return err
		}

		for i := range products {
			kws := keywords[products[i].ID]
			for j := range kws {
				kws[j].Listings = listings[kws[j].ID]
			}
			products[i].Keywords = kws
		}

		snapshot.Products = products
		snapshot.Overrides = overrides
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for account %s: %w", accountID, err)
	}

	snapshot.CapturedAt = time.Now().UTC()
	slog.Debug("loaded account snapshot",
		"account_id", accountID,
		"products", len(snapshot.Products),
		"overrides", len(snapshot.Overrides))
	return snapshot, nil
}
