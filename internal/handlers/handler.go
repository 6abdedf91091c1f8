package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/blob"
	"github.com/its-pratyushpandey/NextHire-backend/internal/directory"
	"github.com/its-pratyushpandey/NextHire-backend/internal/hub"
	"github.com/its-pratyushpandey/NextHire-backend/internal/inbox"
	"github.com/its-pratyushpandey/NextHire-backend/internal/search"
	"github.com/its-pratyushpandey/NextHire-backend/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store     store.MessageStore
	hub       *hub.Hub
	directory directory.Directory
	blobs     blob.Store
	search    *search.Index // nil when Redis is not configured
	inbox     *inbox.Aggregator
	logger    zerolog.Logger
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(s store.MessageStore, h *hub.Hub, d directory.Directory, b blob.Store, ix *search.Index, logger zerolog.Logger) *Handler {
	return &Handler{
		store:     s,
		hub:       h,
		directory: d,
		blobs:     b,
		search:    ix,
		inbox:     inbox.New(s, d),
		logger:    logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
