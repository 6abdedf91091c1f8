package handlers

import (
	"io"
	"net/http"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
)

const attachmentCategory = "chat-attachments"

// UploadResponse represents the attachment upload response. The client
// embeds these fields in a subsequent file-bodied message post.
type UploadResponse struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// UploadAttachment delegates an uploaded file to the blob collaborator
// and returns its reference. A collaborator failure fails the upload;
// no message is ever persisted here.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentityFromContext(r.Context())
	if ident == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(data) == 0 {
		h.Error(w, http.StatusBadRequest, "empty file")
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	ref, err := h.blobs.Store(r.Context(), data, mediaType, header.Filename, attachmentCategory)
	if err != nil {
		h.logger.Error().Err(err).Str("name", header.Filename).Msg("blob upload failed")
		h.Error(w, http.StatusBadGateway, "attachment storage unavailable")
		return
	}

	metrics.AttachmentsUploaded.Inc()

	h.JSON(w, http.StatusOK, UploadResponse{
		URL:  ref.URL,
		Type: ref.Type,
		Name: ref.Name,
	})
}
