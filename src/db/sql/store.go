package db

import (
	"context"

	cache "finance-app-server/src/db"
	"finance-app-server/src/feed"
	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store adapts the package's query functions to the sync engine's storage
// interface, dropping stale cache entries as feed deltas land.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) SyncCursor(ctx context.Context, itemID int64) (string, error) {
	return GetSyncCursor(ctx, s.Pool, itemID)
}

func (s *Store) SetSyncCursor(ctx context.Context, itemID int64, cursor string) error {
	return UpdateSyncCursor(ctx, s.Pool, itemID, cursor)
}

func (s *Store) AccountIDsByPlaidID(ctx context.Context, itemID int64) (map[string]int64, error) {
	return GetAccountIDsByPlaidID(ctx, s.Pool, itemID)
}

func (s *Store) ItemsForUser(ctx context.Context, userID int64) ([]models.PlaidItem, error) {
	return GetItemsForUser(ctx, s.Pool, userID)
}

func (s *Store) ItemByPlaidItemID(ctx context.Context, plaidItemID string) (*models.PlaidItem, error) {
	return GetItemByPlaidItemID(ctx, s.Pool, plaidItemID)
}

func (s *Store) UpsertTransaction(ctx context.Context, userID, accountID int64, t feed.Transaction, llmCategory string) error {
	if err := UpsertTransaction(ctx, s.Pool, userID, accountID, t, llmCategory); err != nil {
		return err
	}
	cache.ClearTransactionCaches()
	return nil
}

func (s *Store) DeleteTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (bool, error) {
	removed, err := DeleteTransactionByPlaidID(ctx, s.Pool, plaidTransactionID)
	if err != nil {
		return false, err
	}
	if removed {
		cache.ClearTransactionCaches()
	}
	return removed, nil
}

func (s *Store) UpdateAccountBalances(ctx context.Context, plaidAccountID string, current float64, available *float64) error {
	if err := UpdateAccountBalances(ctx, s.Pool, plaidAccountID, current, available); err != nil {
		return err
	}
	cache.ClearAccountCaches()
	return nil
}

func (s *Store) SetAccountStatusByItem(ctx context.Context, plaidItemID, status string, errorCode *string) error {
	if err := SetAccountStatusByItem(ctx, s.Pool, plaidItemID, status, errorCode); err != nil {
		return err
	}
	cache.ClearAccountCaches()
	return nil
}
