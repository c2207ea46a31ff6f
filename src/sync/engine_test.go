package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"finance-app-server/src/classify"
	"finance-app-server/src/feed"
	"finance-app-server/src/models"
)

type storedTxn struct {
	userID      int64
	accountID   int64
	txn         feed.Transaction
	llmCategory string
	upserts     int
}

type accountStatus struct {
	status    string
	errorCode *string
}

// fakeStore is an in-memory Store. failUpsertAt makes the nth upsert call
// (1-based) fail once, to simulate a mid-page storage failure.
type fakeStore struct {
	cursors      map[int64]string
	accountIDs   map[int64]map[string]int64
	items        []models.PlaidItem
	transactions map[string]*storedTxn
	balances     map[string]float64
	statuses     map[string]accountStatus

	upsertCalls  int
	failUpsertAt int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cursors:      make(map[int64]string),
		accountIDs:   make(map[int64]map[string]int64),
		transactions: make(map[string]*storedTxn),
		balances:     make(map[string]float64),
		statuses:     make(map[string]accountStatus),
	}
}

func (s *fakeStore) SyncCursor(_ context.Context, itemID int64) (string, error) {
	return s.cursors[itemID], nil
}

func (s *fakeStore) SetSyncCursor(_ context.Context, itemID int64, cursor string) error {
	s.cursors[itemID] = cursor
	return nil
}

func (s *fakeStore) AccountIDsByPlaidID(_ context.Context, itemID int64) (map[string]int64, error) {
	return s.accountIDs[itemID], nil
}

func (s *fakeStore) ItemsForUser(_ context.Context, userID int64) ([]models.PlaidItem, error) {
	var items []models.PlaidItem
	for _, item := range s.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *fakeStore) ItemByPlaidItemID(_ context.Context, plaidItemID string) (*models.PlaidItem, error) {
	for _, item := range s.items {
		if item.ItemID == plaidItemID {
			return &item, nil
		}
	}
	return nil, errors.New("no rows in result set")
}

func (s *fakeStore) UpsertTransaction(_ context.Context, userID, accountID int64, t feed.Transaction, llmCategory string) error {
	s.upsertCalls++
	if s.failUpsertAt > 0 && s.upsertCalls == s.failUpsertAt {
		s.failUpsertAt = 0
		return errors.New("storage failure")
	}
	if existing, ok := s.transactions[t.PlaidTransactionID]; ok {
		existing.txn = t
		existing.llmCategory = llmCategory
		existing.upserts++
		return nil
	}
	s.transactions[t.PlaidTransactionID] = &storedTxn{
		userID: userID, accountID: accountID, txn: t, llmCategory: llmCategory, upserts: 1,
	}
	return nil
}

func (s *fakeStore) DeleteTransactionByPlaidID(_ context.Context, plaidTransactionID string) (bool, error) {
	if _, ok := s.transactions[plaidTransactionID]; !ok {
		return false, nil
	}
	delete(s.transactions, plaidTransactionID)
	return true, nil
}

func (s *fakeStore) UpdateAccountBalances(_ context.Context, plaidAccountID string, current float64, _ *float64) error {
	s.balances[plaidAccountID] = current
	return nil
}

func (s *fakeStore) SetAccountStatusByItem(_ context.Context, plaidItemID, status string, errorCode *string) error {
	s.statuses[plaidItemID] = accountStatus{status: status, errorCode: errorCode}
	return nil
}

// fakeFeed serves pages keyed by the cursor the caller presents, so a
// retried page is re-served exactly as before.
type fakeFeed struct {
	pages       map[string]*feed.ChangeSet
	accounts    []feed.Account
	syncCalls   []string
	accountCall int
	syncErr     error
}

func (f *fakeFeed) CreateLinkToken(context.Context, int64) (string, error) {
	return "link-sandbox-token", nil
}

func (f *fakeFeed) ExchangePublicToken(context.Context, string) (string, string, error) {
	return "access-sandbox-token", "item-1", nil
}

func (f *fakeFeed) Accounts(context.Context, string) ([]feed.Account, error) {
	f.accountCall++
	return f.accounts, nil
}

func (f *fakeFeed) SyncChanges(_ context.Context, _, cursor string) (*feed.ChangeSet, error) {
	f.syncCalls = append(f.syncCalls, cursor)
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	page, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no page for cursor %q", cursor)
	}
	return page, nil
}

func testItem() models.PlaidItem {
	return models.PlaidItem{ID: 1, UserID: 7, ItemID: "item-1", AccessToken: "access-1"}
}

func newTestEngine(store *fakeStore, f *fakeFeed) *Engine {
	return NewEngine(store, f, classify.Local{})
}

func addedTxn(id, account, name string, amount float64) feed.Transaction {
	return feed.Transaction{
		PlaidTransactionID: id,
		PlaidAccountID:     account,
		Name:               name,
		Amount:             amount,
		Date:               "2025-08-14",
		ISOCurrencyCode:    "USD",
	}
}

func TestSyncItemSinglePage(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {
			Added:      []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "GROCERY STORE", 75.50)},
			NextCursor: "cursor-1",
		},
	}}

	stats, err := newTestEngine(store, f).SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}

	if stats.Added != 1 || stats.Modified != 0 || stats.Removed != 0 {
		t.Errorf("stats = %+v, want 1 added", stats)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.transactions))
	}
	row := store.transactions["txn-1"]
	if row.accountID != 11 || row.userID != 7 {
		t.Errorf("row keyed to account %d user %d, want 11/7", row.accountID, row.userID)
	}
	if row.llmCategory != "Food" {
		t.Errorf("llmCategory = %q, want Food", row.llmCategory)
	}
	if store.cursors[1] != "cursor-1" {
		t.Errorf("cursor = %q, want cursor-1", store.cursors[1])
	}
}

func TestSyncItemPaginates(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {
			Added:      []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "COFFEE SHOP", 4.50)},
			HasMore:    true,
			NextCursor: "cursor-1",
		},
		"cursor-1": {
			Added:      []feed.Transaction{addedTxn("txn-2", "plaid-acc-1", "UBER TRIP", 18.00)},
			RemovedIDs: []string{"txn-0"},
			NextCursor: "cursor-2",
		},
	}}

	stats, err := newTestEngine(store, f).SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}

	if stats.Added != 2 || stats.Removed != 1 {
		t.Errorf("stats = %+v, want 2 added 1 removed", stats)
	}
	if got := f.syncCalls; len(got) != 2 || got[0] != "" || got[1] != "cursor-1" {
		t.Errorf("feed saw cursors %v, want [\"\" cursor-1]", got)
	}
	if store.cursors[1] != "cursor-2" {
		t.Errorf("cursor = %q, want cursor-2", store.cursors[1])
	}
}

// A storage failure on the second transaction of a page must leave the
// cursor at the pre-page value; a clean retry then applies the page exactly
// once with no duplicate rows.
func TestSyncItemCursorNotAdvancedOnMidPageFailure(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}
	store.cursors[1] = "cursor-0"
	store.failUpsertAt = 2

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"cursor-0": {
			Added: []feed.Transaction{
				addedTxn("txn-1", "plaid-acc-1", "GROCERY STORE", 20),
				addedTxn("txn-2", "plaid-acc-1", "GAS STATION", 30),
			},
			NextCursor: "cursor-1",
		},
	}}

	engine := newTestEngine(store, f)

	if _, err := engine.SyncItem(context.Background(), testItem()); err == nil {
		t.Fatal("SyncItem() expected error, got nil")
	}
	if store.cursors[1] != "cursor-0" {
		t.Fatalf("cursor advanced to %q after failed page, want cursor-0", store.cursors[1])
	}

	// Retry re-fetches the same page and succeeds.
	stats, err := engine.SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("retry SyncItem() error = %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("retry stats.Added = %d, want 2", stats.Added)
	}
	if len(store.transactions) != 2 {
		t.Errorf("stored %d transactions, want 2 unique", len(store.transactions))
	}
	// txn-1 committed before the failure, so the retry upserts it a second
	// time; idempotency means one row, not an error.
	if store.transactions["txn-1"].upserts != 2 {
		t.Errorf("txn-1 upserts = %d, want 2", store.transactions["txn-1"].upserts)
	}
	if store.cursors[1] != "cursor-1" {
		t.Errorf("cursor = %q, want cursor-1", store.cursors[1])
	}
}

func TestSyncItemFeedErrorLeavesCursor(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{}
	store.cursors[1] = "cursor-5"

	f := &fakeFeed{syncErr: errors.New("INSTITUTION_DOWN")}

	if _, err := newTestEngine(store, f).SyncItem(context.Background(), testItem()); err == nil {
		t.Fatal("SyncItem() expected error, got nil")
	}
	if store.cursors[1] != "cursor-5" {
		t.Errorf("cursor = %q, want cursor-5", store.cursors[1])
	}
}

func TestSyncItemSkipsUnknownAccount(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {
			Added: []feed.Transaction{
				addedTxn("txn-1", "plaid-acc-gone", "GROCERY STORE", 20),
				addedTxn("txn-2", "plaid-acc-1", "GROCERY STORE", 30),
			},
			NextCursor: "cursor-1",
		},
	}}

	stats, err := newTestEngine(store, f).SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}
	if stats.Added != 1 {
		t.Errorf("stats.Added = %d, want 1 (unknown account skipped)", stats.Added)
	}
	if _, ok := store.transactions["txn-1"]; ok {
		t.Error("transaction for unknown account was stored")
	}
	if store.cursors[1] != "cursor-1" {
		t.Errorf("cursor = %q, want cursor-1", store.cursors[1])
	}
}

func TestSyncItemRemovedAbsentIsNoop(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {RemovedIDs: []string{"never-seen"}, NextCursor: "cursor-1"},
	}}

	stats, err := newTestEngine(store, f).SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("stats.Removed = %d, want 1", stats.Removed)
	}
}

func TestSyncItemModifiedOverwritesLLMCategory(t *testing.T) {
	store := newFakeStore()
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {
			Added:      []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "AMAZON MARKETPLACE", 45)},
			NextCursor: "cursor-1",
		},
	}}

	engine := newTestEngine(store, f)
	if _, err := engine.SyncItem(context.Background(), testItem()); err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}
	if got := store.transactions["txn-1"].llmCategory; got != "Shopping" {
		t.Fatalf("llmCategory = %q, want Shopping", got)
	}

	f.pages["cursor-1"] = &feed.ChangeSet{
		Modified:   []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "AMAZON FRESH GROCERY", 45)},
		NextCursor: "cursor-2",
	}
	stats, err := engine.SyncItem(context.Background(), testItem())
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}
	if stats.Modified != 1 {
		t.Errorf("stats.Modified = %d, want 1", stats.Modified)
	}
	if got := store.transactions["txn-1"].llmCategory; got != "Food" {
		t.Errorf("llmCategory after modification = %q, want Food", got)
	}
	if len(store.transactions) != 1 {
		t.Errorf("stored %d transactions, want 1", len(store.transactions))
	}
}

// Two items sharing one access token must sync that credential's feed once.
func TestSyncUserDedupesCredentials(t *testing.T) {
	store := newFakeStore()
	store.items = []models.PlaidItem{
		{ID: 1, UserID: 7, ItemID: "item-1", AccessToken: "shared-token"},
		{ID: 2, UserID: 7, ItemID: "item-2", AccessToken: "shared-token"},
	}
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{
		pages: map[string]*feed.ChangeSet{
			"": {
				Added:      []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "GROCERY STORE", 12)},
				NextCursor: "cursor-1",
			},
		},
		accounts: []feed.Account{{PlaidAccountID: "plaid-acc-1", CurrentBalance: 1000}},
	}

	result, err := newTestEngine(store, f).SyncUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}
	if result.AccountsProcessed != 1 {
		t.Errorf("AccountsProcessed = %d, want 1", result.AccountsProcessed)
	}
	if len(f.syncCalls) != 1 {
		t.Errorf("feed synced %d times, want 1", len(f.syncCalls))
	}
	if f.accountCall != 1 {
		t.Errorf("balances refreshed %d times, want 1", f.accountCall)
	}
	if store.balances["plaid-acc-1"] != 1000 {
		t.Errorf("balance = %v, want 1000", store.balances["plaid-acc-1"])
	}
}

func TestHandleWebhookTransactionsTriggersSync(t *testing.T) {
	store := newFakeStore()
	store.items = []models.PlaidItem{{ID: 1, UserID: 7, ItemID: "item-1", AccessToken: "access-1"}}
	store.accountIDs[1] = map[string]int64{"plaid-acc-1": 11}

	f := &fakeFeed{pages: map[string]*feed.ChangeSet{
		"": {
			Added:      []feed.Transaction{addedTxn("txn-1", "plaid-acc-1", "GROCERY STORE", 12)},
			NextCursor: "cursor-1",
		},
	}}

	err := newTestEngine(store, f).HandleWebhook(context.Background(), WebhookMessage{
		WebhookType: "TRANSACTIONS",
		WebhookCode: "SYNC_UPDATES_AVAILABLE",
		ItemID:      "item-1",
	})
	if err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
	if len(store.transactions) != 1 {
		t.Errorf("stored %d transactions, want 1", len(store.transactions))
	}
}

func TestHandleWebhookItemError(t *testing.T) {
	store := newFakeStore()
	store.items = []models.PlaidItem{{ID: 1, UserID: 7, ItemID: "item-1", AccessToken: "access-1"}}

	msg := WebhookMessage{WebhookType: "ITEM", WebhookCode: "ERROR", ItemID: "item-1"}
	msg.Error = &struct {
		ErrorCode string `json:"error_code"`
	}{ErrorCode: "ITEM_LOGIN_REQUIRED"}

	f := &fakeFeed{}
	if err := newTestEngine(store, f).HandleWebhook(context.Background(), msg); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	got := store.statuses["item-1"]
	if got.status != "error" {
		t.Errorf("status = %q, want error", got.status)
	}
	if got.errorCode == nil || *got.errorCode != "ITEM_LOGIN_REQUIRED" {
		t.Errorf("errorCode = %v, want ITEM_LOGIN_REQUIRED", got.errorCode)
	}
	if len(f.syncCalls) != 0 {
		t.Error("item error webhook must not trigger a sync")
	}
}

func TestHandleWebhookPendingExpiration(t *testing.T) {
	store := newFakeStore()
	store.items = []models.PlaidItem{{ID: 1, UserID: 7, ItemID: "item-1", AccessToken: "access-1"}}

	err := newTestEngine(store, &fakeFeed{}).HandleWebhook(context.Background(), WebhookMessage{
		WebhookType: "ITEM", WebhookCode: "PENDING_EXPIRATION", ItemID: "item-1",
	})
	if err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
	if got := store.statuses["item-1"].status; got != "pending_expiration" {
		t.Errorf("status = %q, want pending_expiration", got)
	}
}

func TestHandleWebhookUnknownTypeIgnored(t *testing.T) {
	err := newTestEngine(newFakeStore(), &fakeFeed{}).HandleWebhook(context.Background(), WebhookMessage{
		WebhookType: "AUTH", WebhookCode: "AUTOMATICALLY_VERIFIED", ItemID: "item-1",
	})
	if err != nil {
		t.Errorf("HandleWebhook() error = %v, want nil for ignored type", err)
	}
}
