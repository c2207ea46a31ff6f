// Package sync pulls transaction deltas from the aggregation feed and
// applies them to local storage, advancing a per-credential cursor only
// after each page has fully landed.
package sync

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"finance-app-server/src/classify"
	"finance-app-server/src/feed"
	"finance-app-server/src/models"
)

// classifyWorkers bounds concurrent classification calls within one page, so
// sync latency is not serialized on the LLM while cursor advancement stays
// strictly ordered.
const classifyWorkers = 4

// Store is the persistence the engine needs. Implemented by db/sql.Store;
// tests substitute an in-memory fake.
type Store interface {
	SyncCursor(ctx context.Context, itemID int64) (string, error)
	SetSyncCursor(ctx context.Context, itemID int64, cursor string) error
	AccountIDsByPlaidID(ctx context.Context, itemID int64) (map[string]int64, error)
	ItemsForUser(ctx context.Context, userID int64) ([]models.PlaidItem, error)
	ItemByPlaidItemID(ctx context.Context, plaidItemID string) (*models.PlaidItem, error)
	UpsertTransaction(ctx context.Context, userID, accountID int64, t feed.Transaction, llmCategory string) error
	DeleteTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (bool, error)
	UpdateAccountBalances(ctx context.Context, plaidAccountID string, current float64, available *float64) error
	SetAccountStatusByItem(ctx context.Context, plaidItemID, status string, errorCode *string) error
}

type Engine struct {
	store      Store
	feed       feed.Client
	classifier classify.Classifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(store Store, feedClient feed.Client, classifier classify.Classifier) *Engine {
	return &Engine{
		store:      store,
		feed:       feedClient,
		classifier: classifier,
		locks:      make(map[string]*sync.Mutex),
	}
}

// credentialLock serializes sync runs per access token. Runs for different
// credentials proceed in parallel.
func (e *Engine) credentialLock(accessToken string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[accessToken]
	if !ok {
		l = &sync.Mutex{}
		e.locks[accessToken] = l
	}
	return l
}

// SyncItem runs a full cursor-driven pull for one credential. The stored
// cursor moves to a page's next_cursor only after every delta on that page
// has been applied; a failure mid-page leaves the cursor at the previous
// page so the next run re-fetches it. Re-fetched upserts are idempotent by
// Plaid transaction id, so redelivery cannot duplicate rows.
func (e *Engine) SyncItem(ctx context.Context, item models.PlaidItem) (models.SyncStats, error) {
	l := e.credentialLock(item.AccessToken)
	l.Lock()
	defer l.Unlock()

	var stats models.SyncStats

	cursor, err := e.store.SyncCursor(ctx, item.ID)
	if err != nil {
		return stats, err
	}

	accountIDs, err := e.store.AccountIDsByPlaidID(ctx, item.ID)
	if err != nil {
		return stats, err
	}

	for {
		page, err := e.feed.SyncChanges(ctx, item.AccessToken, cursor)
		if err != nil {
			return stats, err
		}

		if err := e.applyPage(ctx, item, accountIDs, page, &stats); err != nil {
			return stats, err
		}

		if err := e.store.SetSyncCursor(ctx, item.ID, page.NextCursor); err != nil {
			return stats, err
		}
		cursor = page.NextCursor

		if !page.HasMore {
			break
		}
	}

	log.Printf("INFO: Synced item %s: %d added, %d modified, %d removed", item.ItemID, stats.Added, stats.Modified, stats.Removed)
	return stats, nil
}

func (e *Engine) applyPage(ctx context.Context, item models.PlaidItem, accountIDs map[string]int64, page *feed.ChangeSet, stats *models.SyncStats) error {
	addedCategories, err := e.classifyAll(ctx, page.Added)
	if err != nil {
		return err
	}
	modifiedCategories, err := e.classifyAll(ctx, page.Modified)
	if err != nil {
		return err
	}

	for i, txn := range page.Added {
		accountID, ok := accountIDs[txn.PlaidAccountID]
		if !ok {
			// The account was removed locally; skip rather than fail.
			log.Printf("INFO: Skipping transaction %s for unknown account %s", txn.PlaidTransactionID, txn.PlaidAccountID)
			continue
		}
		if err := e.store.UpsertTransaction(ctx, item.UserID, accountID, txn, addedCategories[i]); err != nil {
			return err
		}
		stats.Added++
	}

	for i, txn := range page.Modified {
		accountID, ok := accountIDs[txn.PlaidAccountID]
		if !ok {
			log.Printf("INFO: Skipping transaction %s for unknown account %s", txn.PlaidTransactionID, txn.PlaidAccountID)
			continue
		}
		if err := e.store.UpsertTransaction(ctx, item.UserID, accountID, txn, modifiedCategories[i]); err != nil {
			return err
		}
		stats.Modified++
	}

	for _, plaidID := range page.RemovedIDs {
		removed, err := e.store.DeleteTransactionByPlaidID(ctx, plaidID)
		if err != nil {
			return err
		}
		if !removed {
			log.Printf("INFO: Removed transaction %s was not present locally", plaidID)
		}
		stats.Removed++
	}

	return nil
}

// classifyAll runs the classifier over a page's transactions with bounded
// concurrency. The classifier itself never fails; only context cancellation
// aborts.
func (e *Engine) classifyAll(ctx context.Context, txns []feed.Transaction) ([]string, error) {
	categories := make([]string, len(txns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyWorkers)
	for i, txn := range txns {
		i, txn := i, txn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in := classify.Input{
				Name:   txn.Name,
				Amount: txn.Amount,
				Date:   txn.Date,
			}
			if txn.OriginalDescription != nil {
				in.Description = *txn.OriginalDescription
			}
			categories[i] = e.classifier.Classify(gctx, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return categories, nil
}

// UserSyncResult is the manual-sync response payload.
type UserSyncResult struct {
	AccountsProcessed int              `json:"accounts_processed"`
	Stats             models.SyncStats `json:"stats"`
}

// SyncUser runs SyncItem once per distinct credential of the user, then
// refreshes balances for each, so balances reconcile even when no new
// transactions exist.
func (e *Engine) SyncUser(ctx context.Context, userID int64) (UserSyncResult, error) {
	var result UserSyncResult

	items, err := e.store.ItemsForUser(ctx, userID)
	if err != nil {
		return result, err
	}

	seen := make(map[string]struct{})
	for _, item := range items {
		if _, done := seen[item.AccessToken]; done {
			continue
		}
		seen[item.AccessToken] = struct{}{}

		stats, err := e.SyncItem(ctx, item)
		result.Stats.Add(stats)
		if err != nil {
			return result, err
		}

		if _, err := e.RefreshBalances(ctx, item); err != nil {
			return result, err
		}
		result.AccountsProcessed++
	}

	return result, nil
}

// RefreshBalances re-fetches feed balances for every account under a
// credential and overwrites the stored ones. Returns the number updated.
func (e *Engine) RefreshBalances(ctx context.Context, item models.PlaidItem) (int, error) {
	accounts, err := e.feed.Accounts(ctx, item.AccessToken)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, acc := range accounts {
		if err := e.store.UpdateAccountBalances(ctx, acc.PlaidAccountID, acc.CurrentBalance, acc.AvailableBalance); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
