package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	cache "finance-app-server/src/db"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"
)

func authedRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(1))
	return req.WithContext(ctx)
}

// The cached first page is shared across requests; serving it must never
// write into the cached slice, even with concurrent readers.
func TestGetTransactionsDoesNotMutateCachedPage(t *testing.T) {
	cache.InitCache()

	food := "Food"
	page := transactionPage{
		Transactions: []models.Transaction{
			{ID: 1, UserID: 1, Name: "GROCERY STORE", Amount: 75.50, UserCategory: &food},
			{ID: 2, UserID: 1, Name: "MYSTERY VENDOR", Amount: 12.00},
		},
		Total: 2,
	}
	cache.SetTransactionCache("transactions:1", page)
	cache.Cache.Wait()

	handler := GetTransactions(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler(rec, authedRequest("/api/transactions"))
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		}()
	}
	wg.Wait()

	for i := range page.Transactions {
		if got := page.Transactions[i].EffectiveCategory; got != "" {
			t.Errorf("cached transaction %d was mutated: EffectiveCategory = %q", page.Transactions[i].ID, got)
		}
	}

	rec := httptest.NewRecorder()
	handler(rec, authedRequest("/api/transactions"))

	var resp struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(resp.Transactions))
	}
	if got := resp.Transactions[0].EffectiveCategory; got != "Food" {
		t.Errorf("expected effective category Food, got %q", got)
	}
	if got := resp.Transactions[1].EffectiveCategory; got != "Uncategorized" {
		t.Errorf("expected effective category Uncategorized, got %q", got)
	}
}

func TestGetMonthlyStatsRejectsInvalidMonth(t *testing.T) {
	handler := GetMonthlyStats(nil)

	for _, month := range []string{"0", "13", "-1"} {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest("/api/transactions/stats/monthly?year=2026&month="+month))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("month=%s: expected 400, got %d", month, rec.Code)
		}
	}
}
