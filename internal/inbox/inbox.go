// Package inbox builds per-recruiter conversation summaries on top of
// the message store and the read-tracking it carries. Summaries are
// derived on every call and never cached.
package inbox

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/its-pratyushpandey/NextHire-backend/internal/directory"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
	"github.com/its-pratyushpandey/NextHire-backend/internal/store"
)

// Kind discriminates summary rows.
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// Summary is one inbox row: a room seen from one viewer's perspective.
type Summary struct {
	RoomID            string    `json:"roomId"`
	Kind              string    `json:"kind"`
	CounterpartID     string    `json:"counterpartId,omitempty"`
	CounterpartName   string    `json:"counterpartName,omitempty"`
	CounterpartAvatar string    `json:"counterpartAvatar,omitempty"`
	GroupName         string    `json:"groupName,omitempty"`
	LastMessage       string    `json:"lastMessage"`
	LastTimestamp     time.Time `json:"lastTimestamp"`
	Unread            int       `json:"unreadCount"`
}

// Aggregator combines store queries and directory lookups into inbox
// views.
type Aggregator struct {
	store     store.MessageStore
	directory directory.Directory
}

// New creates an aggregator.
func New(s store.MessageStore, d directory.Directory) *Aggregator {
	return &Aggregator{store: s, directory: d}
}

// ListConversations returns one summary per room the viewer touches,
// newest activity first. Rooms are independent, so they are summarized
// concurrently; a failure in any room fails the call.
func (a *Aggregator) ListConversations(ctx context.Context, viewerID string) ([]Summary, error) {
	roomIDs, err := a.store.ListRoomIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(roomIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, roomID := range roomIDs {
		i, roomID := i, roomID
		g.Go(func() error {
			s, err := a.summarize(gctx, roomID, viewerID)
			if err != nil {
				return err
			}
			summaries[i] = *s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastTimestamp.After(summaries[j].LastTimestamp)
	})
	return summaries, nil
}

func (a *Aggregator) summarize(ctx context.Context, roomID, viewerID string) (*Summary, error) {
	rid, err := room.Parse(roomID)
	if err != nil {
		return nil, err
	}

	s := &Summary{RoomID: roomID, Kind: KindDirect}

	last, err := a.store.Latest(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		s.LastMessage = preview(last)
		s.LastTimestamp = last.Timestamp
	}

	s.Unread, err = a.store.UnreadCount(ctx, roomID, viewerID)
	if err != nil {
		return nil, err
	}

	if rid.Kind == room.KindGroup {
		s.Kind = KindGroup
		founding, err := a.store.First(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if founding != nil {
			s.GroupName = founding.GroupName
		}
		return s, nil
	}

	counterpart, ok := rid.Counterpart(viewerID)
	if !ok {
		// The viewer posted into a direct room they are not encoded in
		// (system notices). Leave the counterpart columns empty.
		return s, nil
	}
	s.CounterpartID = counterpart
	s.CounterpartName = "Unknown"

	profile, err := a.directory.Lookup(ctx, counterpart)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return s, nil
		}
		return nil, err
	}
	s.CounterpartName = profile.FullName
	s.CounterpartAvatar = profile.AvatarURL
	return s, nil
}

// preview renders the one-line inbox preview for a message body.
func preview(m *models.ChatMessage) string {
	switch {
	case m.Text != "":
		return m.Text
	case m.GIF != "":
		return "[gif]"
	case m.File != nil:
		return m.File.Name
	}
	return ""
}
