package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	db "finance-app-server/src/db/sql"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// GetSummary assembles the dashboard payload: accounts, manual assets, net
// worth, active budgets, and all-time spending by category.
func GetSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		accounts, err := db.GetAccountsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts for summary, user %d: %v", userID, err)
			http.Error(w, "Failed to build summary", http.StatusInternalServerError)
			return
		}

		assets, err := db.GetAssetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get assets for summary, user %d: %v", userID, err)
			http.Error(w, "Failed to build summary", http.StatusInternalServerError)
			return
		}

		budgets, err := db.GetBudgetsForUser(r.Context(), pool, userID, true)
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for summary, user %d: %v", userID, err)
			http.Error(w, "Failed to build summary", http.StatusInternalServerError)
			return
		}

		spending, err := db.SpendingByCategory(r.Context(), pool, userID, nil, nil)
		if err != nil {
			log.Printf("ERROR: Failed to get spending for summary, user %d: %v", userID, err)
			http.Error(w, "Failed to build summary", http.StatusInternalServerError)
			return
		}
		categories, _ := models.WithPercentages(spending)

		// Net worth is account balances (liabilities already negated) plus
		// manually tracked assets.
		totalBalance, _ := models.Totals(accounts)
		netWorth := decimal.NewFromFloat(totalBalance)
		for _, asset := range assets {
			netWorth = netWorth.Add(decimal.NewFromFloat(asset.Value))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts":             accounts,
			"assets":               assets,
			"net_worth":            netWorth.InexactFloat64(),
			"budgets":              budgets,
			"spending_by_category": categories,
		})
	}
}
