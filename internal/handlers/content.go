package handlers

import (
	"net/http"

	"turing-backend/internal/game"
	"turing-backend/internal/models"
)

// ContentHandler serves the read-only corpus metadata the start screen
// needs: which topics are playable.
type ContentHandler struct {
	pool []models.ContentItem
}

func NewContentHandler(pool []models.ContentItem) *ContentHandler {
	return &ContentHandler{pool: pool}
}

func (h *ContentHandler) Themes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"themes": game.Conditions(h.pool),
	})
}
