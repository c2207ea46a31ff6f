package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	"finance-app-server/src/config"
	cache "finance-app-server/src/db"
	db "finance-app-server/src/db/sql"
	"finance-app-server/src/feed"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"
	syncer "finance-app-server/src/sync"
	"finance-app-server/src/util"
)

func CreateLinkToken(feedClient feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		linkToken, err := feedClient.CreateLinkToken(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Failed to create link token for user %d: %v", userID, err)
			http.Error(w, "Failed to create link token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"link_token": linkToken})
	}
}

// ExchangePublicToken trades a Link public token for an access token, persists
// the credential and its accounts, then runs the initial transaction pull so
// the user has data immediately after linking.
func ExchangePublicToken(feedClient feed.Client, pool *pgxpool.Pool, engine *syncer.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var req struct {
			PublicToken string `json:"publicToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
			log.Printf("ERROR: Failed to decode exchange request for user %d: %v", userID, err)
			http.Error(w, "publicToken is required", http.StatusBadRequest)
			return
		}

		accessToken, plaidItemID, err := feedClient.ExchangePublicToken(r.Context(), req.PublicToken)
		if err != nil {
			log.Printf("ERROR: Failed to exchange public token for user %d: %v", userID, err)
			http.Error(w, "Failed to exchange public token: "+plaidErrorCode(err), http.StatusBadRequest)
			return
		}

		accounts, err := feedClient.Accounts(r.Context(), accessToken)
		if err != nil {
			log.Printf("ERROR: Failed to fetch accounts after exchange for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve accounts", http.StatusInternalServerError)
			return
		}

		itemID, err := db.SavePlaidItem(r.Context(), pool, userID, plaidItemID, accessToken)
		if err != nil {
			log.Printf("ERROR: Failed to save item %s for user %d: %v", plaidItemID, userID, err)
			http.Error(w, "Failed to save linked item", http.StatusInternalServerError)
			return
		}

		added, err := db.SaveAccounts(r.Context(), pool, userID, itemID, accounts)
		if err != nil {
			log.Printf("ERROR: Failed to save accounts for item %s: %v", plaidItemID, err)
			http.Error(w, "Failed to save accounts", http.StatusInternalServerError)
			return
		}
		cache.ClearAccountCaches()

		item := models.PlaidItem{ID: itemID, UserID: userID, ItemID: plaidItemID, AccessToken: accessToken}
		if _, err := engine.SyncItem(r.Context(), item); err != nil {
			// The link itself succeeded; the webhook or a manual sync will
			// pick up where the initial pull stopped.
			log.Printf("ERROR: Initial sync failed for item %s: %v", plaidItemID, err)
		}

		log.Printf("INFO: User %d linked item %s with %d accounts", userID, plaidItemID, added)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"accounts_added": added,
		})
	}
}

func plaidErrorCode(err error) string {
	if plaidErr, convErr := plaid.ToPlaidError(err); convErr == nil {
		return string(plaidErr.GetErrorCode())
	}
	return "UNKNOWN"
}

// SyncTransactions is the manual sync trigger. Webhooks normally keep data
// fresh; this exists for pull-to-refresh style clients.
func SyncTransactions(engine *syncer.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		result, err := engine.SyncUser(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Manual sync failed for user %d: %v", userID, err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":            "Sync complete",
			"accounts_processed": result.AccountsProcessed,
			"added":              result.Stats.Added,
			"modified":           result.Stats.Modified,
			"removed":            result.Stats.Removed,
		})
	}
}

// PlaidWebhook handles feed notifications. It always answers 200 so the feed
// does not retry deliveries we have already accepted; failures are logged and
// reconciled by the next sync.
func PlaidWebhook(plaidAPI *plaid.APIClient, engine *syncer.Engine, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("ERROR: Failed to read webhook body: %v", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		if cfg.PlaidWebhookVerify {
			if ok, err := util.VerifyWebhook(r.Context(), plaidAPI, body, r.Header); !ok {
				log.Printf("ERROR: Webhook verification failed: %v", err)
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		var msg syncer.WebhookMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Printf("ERROR: Failed to decode webhook body: %v", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := engine.HandleWebhook(r.Context(), msg); err != nil {
			log.Printf("ERROR: Webhook %s/%s for item %s failed: %v", msg.WebhookType, msg.WebhookCode, msg.ItemID, err)
		}

		w.WriteHeader(http.StatusOK)
	}
}
