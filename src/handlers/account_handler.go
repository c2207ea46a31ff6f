package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	cache "finance-app-server/src/db"
	db "finance-app-server/src/db/sql"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func GetAccounts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		cacheKey := fmt.Sprintf("accounts:%d", userID)
		var accounts []models.Account
		if cached, ok := cache.GetCache(cacheKey); ok {
			accounts = cached.([]models.Account)
		} else {
			var err error
			accounts, err = db.GetAccountsForUser(r.Context(), pool, userID)
			if err != nil {
				log.Printf("ERROR: Failed to get accounts for user %d: %v", userID, err)
				http.Error(w, "Failed to retrieve accounts", http.StatusInternalServerError)
				return
			}
			cache.SetAccountCache(cacheKey, accounts)
		}

		totalBalance, totalAvailable := models.Totals(accounts)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts":                accounts,
			"total_balance":           totalBalance,
			"total_available_balance": totalAvailable,
		})
	}
}

func GetAccountByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		accountIDStr := chi.URLParam(r, "account_id")
		accountID, err := strconv.ParseInt(accountIDStr, 10, 64)
		if err != nil {
			log.Printf("ERROR: Invalid account id param: %s", accountIDStr)
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}

		account, err := db.GetAccountByID(r.Context(), pool, userID, accountID)
		if err != nil {
			log.Printf("ERROR: Account id %d not found for user %d: %v", accountID, userID, err)
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"account": account})
	}
}
