package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// MemoryStore is an in-process MessageStore used by the test suite.
// A single mutex serializes all state changes, so read marks are a
// strict set union no matter how calls interleave.
type MemoryStore struct {
	mu       sync.Mutex
	seq      int64
	messages []*models.ChatMessage
	reads    map[string]map[string]bool // message id -> viewer set
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reads: make(map[string]map[string]bool)}
}

func (s *MemoryStore) Close() error                 { return nil }
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Append validates and stores a message.
func (s *MemoryStore) Append(_ context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	if err := prepare(m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	m.Seq = s.seq

	stored := *m
	stored.Members = append([]string(nil), m.Members...)
	s.messages = append(s.messages, &stored)
	return m, nil
}

// ListByRoom returns a room's messages ascending by (timestamp, seq).
func (s *MemoryStore) ListByRoom(_ context.Context, roomID string) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, s.snapshot(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// Latest returns the newest message in a room, or nil.
func (s *MemoryStore) Latest(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	msgs, err := s.ListByRoom(ctx, roomID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

// First returns the oldest message in a room, or nil.
func (s *MemoryStore) First(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	msgs, err := s.ListByRoom(ctx, roomID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// UnreadCount counts messages unread by viewerID.
func (s *MemoryStore) UnreadCount(_ context.Context, roomID, viewerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, m := range s.messages {
		if m.RoomID != roomID || m.SenderID == viewerID {
			continue
		}
		if !s.reads[m.ID][viewerID] {
			count++
		}
	}
	return count, nil
}

// MarkRoomRead adds viewerID to the read set of every message in the room.
func (s *MemoryStore) MarkRoomRead(_ context.Context, roomID, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.RoomID != roomID {
			continue
		}
		set := s.reads[m.ID]
		if set == nil {
			set = make(map[string]bool)
			s.reads[m.ID] = set
		}
		set[viewerID] = true
	}
	return nil
}

// ListRoomIDs enumerates rooms touched by an identity.
func (s *MemoryStore) ListRoomIDs(_ context.Context, participantID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, m := range s.messages {
		if seen[m.RoomID] {
			continue
		}
		touched := strings.Contains(m.RoomID, participantID) || m.SenderID == participantID
		if !touched {
			for _, member := range m.Members {
				if member == participantID {
					touched = true
					break
				}
			}
		}
		if touched {
			seen[m.RoomID] = true
			out = append(out, m.RoomID)
		}
	}
	return out, nil
}

// snapshot copies a message with its current read set. Caller holds mu.
func (s *MemoryStore) snapshot(m *models.ChatMessage) *models.ChatMessage {
	out := *m
	out.Members = append([]string(nil), m.Members...)
	out.ReadBy = make([]string, 0, len(s.reads[m.ID]))
	for viewer := range s.reads[m.ID] {
		out.ReadBy = append(out.ReadBy, viewer)
	}
	sort.Strings(out.ReadBy)
	return &out
}
