package store

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// MessageStore is the single source of truth for chat history and read
// state. PostgresStore serves production, SQLiteStore the development
// fallback, and MemoryStore the tests.
type MessageStore interface {
	// Append validates and persists a message, assigning its id,
	// sequence and timestamp. Nothing is stored on a validation error.
	Append(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error)

	// ListByRoom returns a room's history ascending by (timestamp, seq).
	ListByRoom(ctx context.Context, roomID string) ([]*models.ChatMessage, error)

	// Latest returns the newest message in a room, or nil.
	Latest(ctx context.Context, roomID string) (*models.ChatMessage, error)

	// First returns the oldest message in a room, or nil. For group
	// rooms this is the founding system message.
	First(ctx context.Context, roomID string) (*models.ChatMessage, error)

	// UnreadCount counts messages in the room not authored by viewerID
	// and not yet carrying viewerID in their read set.
	UnreadCount(ctx context.Context, roomID, viewerID string) (int, error)

	// MarkRoomRead adds viewerID to the read set of every message in
	// the room. Idempotent; marks are never lost or reverted.
	MarkRoomRead(ctx context.Context, roomID, viewerID string) error

	// ListRoomIDs enumerates the distinct rooms an identity touches:
	// direct rooms embedding the id, rooms it has posted in, and groups
	// whose founding message lists it.
	ListRoomIDs(ctx context.Context, participantID string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// prepare validates a message and stamps the store-assigned fields.
func prepare(m *models.ChatMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}
