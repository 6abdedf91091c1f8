package handlers

import (
	"net/http"
	"strconv"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/search"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// FindResponse represents the message search response.
type FindResponse struct {
	Query   string       `json:"query"`
	Results []search.Hit `json:"results"`
}

// FindMessages searches indexed message bodies. Available only when
// Redis is configured.
func (h *Handler) FindMessages(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.search == nil {
		h.Error(w, http.StatusServiceUnavailable, "search is not available")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		h.Error(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		limit = n
	}

	roomFilter := r.URL.Query().Get("room")

	hits, err := h.search.Search(r.Context(), query, limit, roomFilter)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("search failed")
		h.Error(w, http.StatusInternalServerError, "search failed")
		return
	}

	h.JSON(w, http.StatusOK, FindResponse{Query: query, Results: hits})
}
