package handlers

import (
	"net/http"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/inbox"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// ConversationsResponse represents the inbox listing response.
type ConversationsResponse struct {
	Conversations []inbox.Summary `json:"conversations"`
}

// ApplicantsResponse represents the applicants listing response.
type ApplicantsResponse struct {
	Applicants []models.Profile `json:"applicants"`
}

// ListConversations returns the caller's inbox: one row per room,
// newest activity first, with unread counts.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summaries, err := h.inbox.ListConversations(r.Context(), ident.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("viewer", ident.ID).Msg("inbox aggregation failed")
		h.Error(w, http.StatusBadGateway, "failed to build conversations")
		return
	}

	h.JSON(w, http.StatusOK, ConversationsResponse{Conversations: summaries})
}

// ListApplicants returns the distinct candidate profiles a recruiter
// has direct rooms with.
func (h *Handler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if ident.Role != models.RoleRecruiter {
		h.Error(w, http.StatusForbidden, "recruiter role required")
		return
	}

	summaries, err := h.inbox.ListConversations(r.Context(), ident.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("viewer", ident.ID).Msg("inbox aggregation failed")
		h.Error(w, http.StatusBadGateway, "failed to build applicants")
		return
	}

	seen := make(map[string]bool)
	applicants := make([]models.Profile, 0, len(summaries))
	for _, s := range summaries {
		if s.Kind != inbox.KindDirect || s.CounterpartID == "" || seen[s.CounterpartID] {
			continue
		}
		seen[s.CounterpartID] = true
		applicants = append(applicants, models.Profile{
			ID:        s.CounterpartID,
			FullName:  s.CounterpartName,
			AvatarURL: s.CounterpartAvatar,
		})
	}

	h.JSON(w, http.StatusOK, ApplicantsResponse{Applicants: applicants})
}
