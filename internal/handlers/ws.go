package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/hub"
	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
)

const wsPostTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the recruiting frontend; origin
	// policy is enforced by the CORS layer on the API surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches it to the hub. The
// client then joins rooms and posts messages over two events.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	logger := h.logger.With().Str("connection", connID).Str("user", ident.ID).Logger()

	client := hub.NewClient(connID, h.hub, conn, func(roomID string, data json.RawMessage) {
		h.postFromSocket(connID, ident, roomID, data)
	}, logger)

	metrics.WSConnections.Inc()
	logger.Debug().Msg("websocket connected")

	go func() {
		defer metrics.WSConnections.Dec()
		client.WritePump()
	}()
	go client.ReadPump()
}

// postFromSocket durably appends a socket-posted message and fans it
// out, excluding the posting connection.
func (h *Handler) postFromSocket(connID string, ident *middleware.Identity, roomID string, data json.RawMessage) {
	rid, err := room.Parse(roomID)
	if err != nil {
		return
	}
	roomID = rid.String()

	var req PostMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsPostTimeout)
	defer cancel()

	msg := &models.ChatMessage{
		RoomID:     roomID,
		SenderID:   ident.ID,
		SenderRole: ident.Role,
		Text:       req.Text,
		GIF:        req.GIF,
		File:       req.File,
	}

	stored, err := h.store.Append(ctx, msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("room", roomID).Str("connection", connID).Msg("socket post rejected")
		return
	}

	h.broadcast(stored, connID)
	h.indexMessage(ctx, stored)

	kind := "direct"
	if rid.Kind == room.KindGroup {
		kind = "group"
	}
	metrics.MessagesPosted.WithLabelValues(kind).Inc()
}
