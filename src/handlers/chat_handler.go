package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"finance-app-server/src/category"
	db "finance-app-server/src/db/sql"
	"finance-app-server/src/llm"
	"finance-app-server/src/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
)

const chatContextTransactions = 100

// Chat answers a free-form question about the user's finances by stuffing a
// snapshot of their accounts, assets, and recent transactions into the prompt.
func Chat(pool *pgxpool.Pool, llmClient *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}

		accounts, err := db.GetAccountsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts for chat, user %d: %v", userID, err)
			http.Error(w, "Failed to answer question", http.StatusInternalServerError)
			return
		}

		assets, err := db.GetAssetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get assets for chat, user %d: %v", userID, err)
			http.Error(w, "Failed to answer question", http.StatusInternalServerError)
			return
		}

		transactions, err := db.GetRecentTransactions(r.Context(), pool, userID, chatContextTransactions)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for chat, user %d: %v", userID, err)
			http.Error(w, "Failed to answer question", http.StatusInternalServerError)
			return
		}

		var b strings.Builder
		b.WriteString("You are a personal finance assistant. Answer the user's question using only the data below. Be concise and specific.\n\n")

		b.WriteString("Accounts:\n")
		for _, a := range accounts {
			fmt.Fprintf(&b, "- %s (%s): balance %.2f %s\n", a.Name, a.Type, a.CurrentBalance, a.ISOCurrencyCode)
		}

		if len(assets) > 0 {
			b.WriteString("\nOther assets:\n")
			for _, a := range assets {
				fmt.Fprintf(&b, "- %s (%s): %.2f\n", a.Name, a.Type, a.Value)
			}
		}

		b.WriteString("\nRecent transactions (positive amount = money out):\n")
		for i := range transactions {
			t := &transactions[i]
			fmt.Fprintf(&b, "- %s | %s | %.2f | %s\n",
				t.Date.Format("2006-01-02"), t.Name, t.Amount, category.Effective(t))
		}

		fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(req.Question))

		answer, err := llmClient.Ask(r.Context(), b.String())
		if err != nil {
			log.Printf("ERROR: LLM chat request failed for user %d: %v", userID, err)
			http.Error(w, "Assistant is unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"answer": answer})
	}
}
