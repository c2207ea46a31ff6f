package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	db "finance-app-server/src/db/sql"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var budgetPeriods = map[string]bool{"weekly": true, "monthly": true, "annual": true}

func decodeBudget(r *http.Request) (*models.Budget, string) {
	var b models.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		return nil, "invalid request body"
	}
	if b.Category == "" {
		return nil, "category is required"
	}
	if b.Amount <= 0 {
		return nil, "amount must be positive"
	}
	if b.Period == "" {
		b.Period = "monthly"
	}
	if !budgetPeriods[b.Period] {
		return nil, "period must be weekly, monthly, or annual"
	}
	if b.StartDate.IsZero() {
		b.StartDate = time.Now()
	}
	return &b, ""
}

func CreateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		b, msg := decodeBudget(r)
		if msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		b.UserID = userID
		b.IsActive = true

		created, err := db.CreateBudget(r.Context(), pool, b)
		if err != nil {
			log.Printf("ERROR: Failed to create budget for user %d: %v", userID, err)
			http.Error(w, "Failed to create budget", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: User %d created budget %d for %s", userID, created.ID, created.Category)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"budget": created})
	}
}

func GetBudgets(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		activeOnly := r.URL.Query().Get("active") == "true"

		budgets, err := db.GetBudgetsForUser(r.Context(), pool, userID, activeOnly)
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve budgets", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"budgets": budgets})
	}
}

func GetBudgetByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid budget id", http.StatusBadRequest)
			return
		}

		budget, err := db.GetBudgetByID(r.Context(), pool, userID, budgetID)
		if err != nil {
			log.Printf("ERROR: Budget id %d not found for user %d: %v", budgetID, userID, err)
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"budget": budget})
	}
}

func UpdateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid budget id", http.StatusBadRequest)
			return
		}

		var b models.Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if b.Period != "" && !budgetPeriods[b.Period] {
			http.Error(w, "period must be weekly, monthly, or annual", http.StatusBadRequest)
			return
		}
		b.ID = budgetID
		b.UserID = userID

		updated, err := db.UpdateBudget(r.Context(), pool, &b)
		if err != nil {
			log.Printf("ERROR: Failed to update budget %d for user %d: %v", budgetID, userID, err)
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"budget": updated})
	}
}

func DeleteBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid budget id", http.StatusBadRequest)
			return
		}

		deleted, err := db.DeleteBudget(r.Context(), pool, userID, budgetID)
		if err != nil {
			log.Printf("ERROR: Failed to delete budget %d for user %d: %v", budgetID, userID, err)
			http.Error(w, "Failed to delete budget", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}
}
