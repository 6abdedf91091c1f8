package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
)

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Text string          `json:"message"`
	GIF  string          `json:"gif,omitempty"`
	File *models.FileRef `json:"file,omitempty"`
}

// RoomMessagesResponse represents the get room messages response.
type RoomMessagesResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
}

// GetRoomMessages lists a room's history. Opening a room is what marks
// it read, so the caller's mark is applied before listing.
func (h *Handler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rid, err := room.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}
	roomID := rid.String()

	if err := h.store.MarkRoomRead(r.Context(), roomID, ident.ID); err != nil {
		h.logger.Error().Err(err).Str("room", roomID).Msg("mark read failed")
		h.Error(w, http.StatusInternalServerError, "failed to mark room read")
		return
	}

	messages, err := h.store.ListByRoom(r.Context(), roomID)
	if err != nil {
		h.logger.Error().Err(err).Str("room", roomID).Msg("list messages failed")
		h.Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	h.JSON(w, http.StatusOK, RoomMessagesResponse{Messages: messages})
}

// PostMessage appends a message to a room and fans it out to live
// subscribers. The append is durable before any delivery happens.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rid, err := room.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}
	// Store and broadcast under the canonical spelling, whatever order
	// the caller wrote the pair in.
	roomID := rid.String()

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg := &models.ChatMessage{
		RoomID:     roomID,
		SenderID:   ident.ID,
		SenderRole: ident.Role,
		Text:       req.Text,
		GIF:        req.GIF,
		File:       req.File,
	}

	stored, err := h.store.Append(r.Context(), msg)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("room", roomID).Msg("append failed")
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	h.broadcast(stored, "")
	h.indexMessage(r.Context(), stored)

	kind := "direct"
	if rid.Kind == room.KindGroup {
		kind = "group"
	}
	metrics.MessagesPosted.WithLabelValues(kind).Inc()

	h.JSON(w, http.StatusCreated, stored)
}

// MarkRoomRead is the explicit read receipt endpoint.
func (h *Handler) MarkRoomRead(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rid, err := room.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}
	roomID := rid.String()

	if err := h.store.MarkRoomRead(r.Context(), roomID, ident.ID); err != nil {
		h.logger.Error().Err(err).Str("room", roomID).Msg("mark read failed")
		h.Error(w, http.StatusInternalServerError, "failed to mark room read")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// broadcast publishes a stored message to the room's live subscribers.
// originConn, when set, is the websocket connection that posted it.
func (h *Handler) broadcast(msg *models.ChatMessage, originConn string) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("message", msg.ID).Msg("marshal for fanout failed")
		return
	}
	h.hub.Publish(msg.RoomID, payload, originConn)
}

// indexMessage feeds the search index. Best effort: a failure here
// never fails the post.
func (h *Handler) indexMessage(ctx context.Context, msg *models.ChatMessage) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexMessage(ctx, msg); err != nil {
		h.logger.Warn().Err(err).Str("message", msg.ID).Msg("search indexing failed")
	}
}
