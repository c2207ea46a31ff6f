package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-app-server/src/classify"
	"finance-app-server/src/config"
	"finance-app-server/src/feed"
	"finance-app-server/src/models"
	syncer "finance-app-server/src/sync"
)

// brokenStore fails every operation, standing in for a database outage.
type brokenStore struct{}

var errStore = errors.New("store unavailable")

func (brokenStore) SyncCursor(context.Context, int64) (string, error) { return "", errStore }
func (brokenStore) SetSyncCursor(context.Context, int64, string) error {
	return errStore
}
func (brokenStore) AccountIDsByPlaidID(context.Context, int64) (map[string]int64, error) {
	return nil, errStore
}
func (brokenStore) ItemsForUser(context.Context, int64) ([]models.PlaidItem, error) {
	return nil, errStore
}
func (brokenStore) ItemByPlaidItemID(context.Context, string) (*models.PlaidItem, error) {
	return nil, errStore
}
func (brokenStore) UpsertTransaction(context.Context, int64, int64, feed.Transaction, string) error {
	return errStore
}
func (brokenStore) DeleteTransactionByPlaidID(context.Context, string) (bool, error) {
	return false, errStore
}
func (brokenStore) UpdateAccountBalances(context.Context, string, float64, *float64) error {
	return errStore
}
func (brokenStore) SetAccountStatusByItem(context.Context, string, string, *string) error {
	return errStore
}

type deadFeed struct{}

var errFeed = errors.New("feed unavailable")

func (deadFeed) CreateLinkToken(context.Context, int64) (string, error) { return "", errFeed }
func (deadFeed) ExchangePublicToken(context.Context, string) (string, string, error) {
	return "", "", errFeed
}
func (deadFeed) Accounts(context.Context, string) ([]feed.Account, error) {
	return nil, errFeed
}
func (deadFeed) SyncChanges(context.Context, string, string) (*feed.ChangeSet, error) {
	return nil, errFeed
}

// Plaid retries deliveries on non-2xx responses, so the webhook endpoint
// acknowledges receipt no matter what goes wrong while processing.
func TestPlaidWebhookAlwaysAcknowledges(t *testing.T) {
	engine := syncer.NewEngine(brokenStore{}, deadFeed{}, classify.Local{})
	cfg := &config.Config{}
	handler := PlaidWebhook(nil, engine, cfg)

	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{not json`},
		{"sync update with failing store", `{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE","item_id":"item-1"}`},
		{"item error with failing store", `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`},
		{"unknown webhook type", `{"webhook_type":"ASSETS","webhook_code":"PRODUCT_READY","item_id":"item-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/plaid/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		})
	}
}
