package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrValidation marks append-time rejections so callers can translate
// them to a 400 instead of a 500.
var ErrValidation = errors.New("validation failed")

// FileRef points at an uploaded attachment held by the blob store.
type FileRef struct {
	URL  string `json:"fileUrl"`
	Type string `json:"fileType"`
	Name string `json:"fileName"`
}

// ChatMessage is a single message in a room. Everything except ReadBy is
// fixed at creation; ReadBy only ever grows by union.
type ChatMessage struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"-"` // store-assigned, breaks timestamp ties
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderRole Role      `json:"senderRole"`
	Text       string    `json:"message"`
	GIF        string    `json:"gif,omitempty"`
	File       *FileRef  `json:"file,omitempty"`
	GroupName  string    `json:"groupName,omitempty"` // only on a group's founding system message
	Members    []string  `json:"members,omitempty"`   // only on a group's founding system message
	Timestamp  time.Time `json:"timestamp"`
	ReadBy     []string  `json:"readBy"`
}

// Validate checks the fields a message must carry before it may be
// appended. An empty text body with no attachment is allowed; carrying
// more than one payload kind is not.
func (m *ChatMessage) Validate() error {
	if m.RoomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrValidation)
	}
	if m.SenderID == "" {
		return fmt.Errorf("%w: senderId is required", ErrValidation)
	}
	if _, err := uuid.Parse(m.SenderID); err != nil {
		return fmt.Errorf("%w: invalid senderId format", ErrValidation)
	}
	if !m.SenderRole.Valid() {
		return fmt.Errorf("%w: senderRole must be recruiter, candidate or system", ErrValidation)
	}
	payloads := 0
	if m.Text != "" {
		payloads++
	}
	if m.GIF != "" {
		payloads++
	}
	if m.File != nil {
		if m.File.URL == "" {
			return fmt.Errorf("%w: file attachment requires fileUrl", ErrValidation)
		}
		payloads++
	}
	if payloads > 1 {
		return fmt.Errorf("%w: message carries more than one body payload", ErrValidation)
	}
	return nil
}

// ReadByUser reports whether viewerID has acknowledged this message.
func (m *ChatMessage) ReadByUser(viewerID string) bool {
	for _, id := range m.ReadBy {
		if id == viewerID {
			return true
		}
	}
	return false
}
