package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetCompanion returns the stored attributes of one companion owned by the caller.
func (a *App) GetCompanion(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "companion id required")
		return
	}
	companion := a.Companions.GetAttributes(r.Context(), id)
	if companion == nil || companion.UserID != userID {
		a.error(w, http.StatusNotFound, "companion not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":           companion.ID,
		"name":         companion.Name,
		"age":          companion.Age,
		"description":  companion.Description,
		"personality":  companion.Personality,
		"body":         companion.Body,
		"ethnicity":    companion.Ethnicity,
		"relationship": companion.Relationship,
		"created_at":   companion.CreatedAt,
	})
}
