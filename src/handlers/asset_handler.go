package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	db "finance-app-server/src/db/sql"
	"finance-app-server/src/middleware"
	"finance-app-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateAsset(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var a models.Asset
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if a.Name == "" || a.Type == "" {
			http.Error(w, "name and type are required", http.StatusBadRequest)
			return
		}
		a.UserID = userID

		created, err := db.CreateAsset(r.Context(), pool, &a)
		if err != nil {
			log.Printf("ERROR: Failed to create asset for user %d: %v", userID, err)
			http.Error(w, "Failed to create asset", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"asset": created})
	}
}

func GetAssets(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		assets, err := db.GetAssetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get assets for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve assets", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"assets": assets})
	}
}

func GetAssetByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		assetID, err := strconv.ParseInt(chi.URLParam(r, "asset_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid asset id", http.StatusBadRequest)
			return
		}

		asset, err := db.GetAssetByID(r.Context(), pool, userID, assetID)
		if err != nil {
			log.Printf("ERROR: Asset id %d not found for user %d: %v", assetID, userID, err)
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"asset": asset})
	}
}

func UpdateAsset(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		assetID, err := strconv.ParseInt(chi.URLParam(r, "asset_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid asset id", http.StatusBadRequest)
			return
		}

		var a models.Asset
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		a.ID = assetID
		a.UserID = userID

		updated, err := db.UpdateAsset(r.Context(), pool, &a)
		if err != nil {
			log.Printf("ERROR: Failed to update asset %d for user %d: %v", assetID, userID, err)
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"asset": updated})
	}
}

func DeleteAsset(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		assetID, err := strconv.ParseInt(chi.URLParam(r, "asset_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid asset id", http.StatusBadRequest)
			return
		}

		deleted, err := db.DeleteAsset(r.Context(), pool, userID, assetID)
		if err != nil {
			log.Printf("ERROR: Failed to delete asset %d for user %d: %v", assetID, userID, err)
			http.Error(w, "Failed to delete asset", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}
}
