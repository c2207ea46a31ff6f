package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"finance-app-server/src/category"
	cache "finance-app-server/src/db"
	db "finance-app-server/src/db/sql"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transactionPage is the cached shape of an unfiltered first-page query, the
// one every client hits on load.
type transactionPage struct {
	Transactions []models.Transaction
	Total        int
}

func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// monthBounds resolves the stats period: month within year, whole year, or
// the current month when neither is given.
func monthBounds(yearStr, monthStr string) (time.Time, time.Time, error) {
	now := time.Now()
	year, errY := strconv.Atoi(yearStr)
	month, errM := strconv.Atoi(monthStr)

	switch {
	case errY == nil && errM == nil:
		if month < 1 || month > 12 {
			return time.Time{}, time.Time{}, fmt.Errorf("month %d out of range", month)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	case errY == nil:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), nil
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	}
}

// withEffectiveCategories returns a copy with the resolved category filled
// in. The input may be a shared cached page, so it is never written to.
func withEffectiveCategories(transactions []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(transactions))
	for i := range transactions {
		out[i] = transactions[i]
		out[i].EffectiveCategory = category.Effective(&transactions[i])
	}
	return out
}

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		q := r.URL.Query()

		filter := db.TransactionFilter{
			Category: q.Get("category"),
			Page:     1,
			PageSize: 20,
		}

		var err error
		if filter.StartDate, err = parseDateParam(q.Get("startDate")); err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		if filter.EndDate, err = parseDateParam(q.Get("endDate")); err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}
		if raw := q.Get("accountId"); raw != "" {
			accountID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid accountId", http.StatusBadRequest)
				return
			}
			filter.AccountID = &accountID
		}
		if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
			filter.Page = page
		}
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 100 {
			filter.PageSize = limit
		}

		cacheable := filter.StartDate == nil && filter.EndDate == nil &&
			filter.AccountID == nil && filter.Category == "" &&
			filter.Page == 1 && filter.PageSize == 20
		cacheKey := fmt.Sprintf("transactions:%d", userID)

		var transactions []models.Transaction
		var total int
		if cached, ok := cache.GetCache(cacheKey); cacheable && ok {
			page := cached.(transactionPage)
			transactions, total = page.Transactions, page.Total
		} else {
			var err error
			transactions, total, err = db.GetTransactions(r.Context(), pool, userID, filter)
			if err != nil {
				log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
				http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
				return
			}
			if cacheable {
				cache.SetTransactionCache(cacheKey, transactionPage{Transactions: transactions, Total: total})
			}
		}

		totalPages := (total + filter.PageSize - 1) / filter.PageSize

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"transactions": withEffectiveCategories(transactions),
			"pagination": map[string]interface{}{
				"total":       total,
				"page":        filter.Page,
				"limit":       filter.PageSize,
				"total_pages": totalPages,
			},
		})
	}
}

func GetTransactionByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		idStr := chi.URLParam(r, "transaction_id")
		transactionID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			log.Printf("ERROR: Invalid transaction id param: %s", idStr)
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		txn, err := db.GetTransactionByID(r.Context(), pool, userID, transactionID)
		if err != nil {
			log.Printf("ERROR: Transaction id %d not found for user %d: %v", transactionID, userID, err)
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		txn.EffectiveCategory = category.Effective(txn)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"transaction": txn})
	}
}

// UpdateTransactionCategory sets the user's category override, the highest
// precedence of the three category fields.
func UpdateTransactionCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		idStr := chi.URLParam(r, "transaction_id")
		transactionID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			log.Printf("ERROR: Invalid transaction id param: %s", idStr)
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		var req struct {
			Category string `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == "" {
			log.Printf("ERROR: Failed to decode category update for user %d: %v", userID, err)
			http.Error(w, "category is required", http.StatusBadRequest)
			return
		}

		txn, err := db.SetUserCategory(r.Context(), pool, userID, transactionID, req.Category)
		if err != nil {
			log.Printf("ERROR: Failed to set user category on transaction %d for user %d: %v", transactionID, userID, err)
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		txn.EffectiveCategory = category.Effective(txn)
		cache.ClearTransactionCaches()

		log.Printf("INFO: User %d set category %q on transaction %d", userID, req.Category, transactionID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"transaction": txn,
		})
	}
}

func GetMonthlyStats(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		start, end, err := monthBounds(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
		if err != nil {
			http.Error(w, "month must be between 1 and 12", http.StatusBadRequest)
			return
		}

		stats, err := db.GetMonthlyStats(r.Context(), pool, userID, start, end)
		if err != nil {
			log.Printf("ERROR: Failed to get monthly stats for user %d: %v", userID, err)
			http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

func GetSpendingByCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		q := r.URL.Query()

		start, err := parseDateParam(q.Get("startDate"))
		if err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		end, err := parseDateParam(q.Get("endDate"))
		if err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}

		// Default to the current month when no bounds are given.
		if start == nil && end == nil {
			first, last, _ := monthBounds("", "")
			start, end = &first, &last
		}

		spending, err := db.SpendingByCategory(r.Context(), pool, userID, start, end)
		if err != nil {
			log.Printf("ERROR: Failed to get spending by category for user %d: %v", userID, err)
			http.Error(w, "Failed to compute spending", http.StatusInternalServerError)
			return
		}

		categories, totalSpending := models.WithPercentages(spending)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"categories":     categories,
			"total_spending": totalSpending,
		})
	}
}
