package handlers

import (
	"encoding/json"
	"net/http"

	"finance-app-server/src/category"
)

// GetCategories returns the category taxonomy clients offer in pickers.
func GetCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"categories": category.Taxonomy})
	}
}
