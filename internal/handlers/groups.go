package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
)

// CreateGroupRequest represents the group creation request.
type CreateGroupRequest struct {
	GroupName string   `json:"groupName"`
	MemberIDs []string `json:"memberIds"`
}

// CreateGroupResponse represents the group creation response.
type CreateGroupResponse struct {
	RoomID    string   `json:"roomId"`
	GroupName string   `json:"groupName"`
	MemberIDs []string `json:"memberIds"`
}

// CreateGroup mints a group room and seeds it with the founding system
// message that carries the group's label and member list.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.GroupName == "" || len(req.MemberIDs) == 0 {
		h.Error(w, http.StatusBadRequest, "groupName and memberIds are required")
		return
	}
	for _, id := range req.MemberIDs {
		if _, err := uuid.Parse(id); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid member id")
			return
		}
	}

	members := req.MemberIDs
	if !contains(members, ident.ID) {
		members = append(members, ident.ID)
	}

	rid := room.MintGroup()
	founding := &models.ChatMessage{
		RoomID:     rid.String(),
		SenderID:   ident.ID,
		SenderRole: models.RoleSystem,
		Text:       fmt.Sprintf("Group %q created", req.GroupName),
		GroupName:  req.GroupName,
		Members:    members,
	}

	stored, err := h.store.Append(r.Context(), founding)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("room", rid.String()).Msg("group creation failed")
		h.Error(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	h.broadcast(stored, "")
	metrics.GroupsCreated.Inc()

	h.JSON(w, http.StatusCreated, CreateGroupResponse{
		RoomID:    stored.RoomID,
		GroupName: req.GroupName,
		MemberIDs: members,
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
