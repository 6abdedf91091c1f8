package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/its-pratyushpandey/NextHire-backend/internal/directory"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
	"github.com/its-pratyushpandey/NextHire-backend/internal/store"
)

type failingDirectory struct{}

func (failingDirectory) Lookup(context.Context, string) (*models.Profile, error) {
	return nil, errors.New("directory unavailable")
}

func seed(t *testing.T) (st *store.MemoryStore, recruiter, candidate, roomID string) {
	t.Helper()
	st = store.NewMemoryStore()
	recruiter, candidate = uuid.NewString(), uuid.NewString()

	rid, err := room.ResolveDirect(candidate, recruiter)
	if err != nil {
		t.Fatal(err)
	}
	roomID = rid.String()

	_, err = st.Append(context.Background(), &models.ChatMessage{
		RoomID:     roomID,
		SenderID:   candidate,
		SenderRole: models.RoleCandidate,
		Text:       "Hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	return st, recruiter, candidate, roomID
}

func TestListConversationsReadFlow(t *testing.T) {
	st, recruiter, candidate, roomID := seed(t)
	ctx := context.Background()

	agg := New(st, directory.Static{
		candidate: {ID: candidate, FullName: "Ada Lovelace", AvatarURL: "https://cdn.example/ada.png"},
	})

	summaries, err := agg.ListConversations(ctx, recruiter)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.RoomID != roomID || s.Kind != KindDirect {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.LastMessage != "Hello" {
		t.Fatalf("lastMessage = %q, want Hello", s.LastMessage)
	}
	if s.Unread != 1 {
		t.Fatalf("unread = %d, want 1", s.Unread)
	}
	if s.CounterpartID != candidate || s.CounterpartName != "Ada Lovelace" {
		t.Fatalf("counterpart not resolved: %+v", s)
	}

	if err := st.MarkRoomRead(ctx, roomID, recruiter); err != nil {
		t.Fatal(err)
	}
	summaries, err = agg.ListConversations(ctx, recruiter)
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].Unread != 0 {
		t.Fatalf("unread after mark = %d, want 0", summaries[0].Unread)
	}
}

func TestListConversationsUnknownCounterpart(t *testing.T) {
	st, recruiter, _, _ := seed(t)

	agg := New(st, directory.Static{})
	summaries, err := agg.ListConversations(context.Background(), recruiter)
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].CounterpartName != "Unknown" {
		t.Fatalf("missing profile should degrade to Unknown, got %q", summaries[0].CounterpartName)
	}
}

func TestListConversationsDirectoryFailure(t *testing.T) {
	st, recruiter, _, _ := seed(t)

	agg := New(st, failingDirectory{})
	if _, err := agg.ListConversations(context.Background(), recruiter); err == nil {
		t.Fatal("directory transport failure should fail the call")
	}
}

func TestListConversationsGroupRoom(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	creator := uuid.NewString()
	memberX, memberY := uuid.NewString(), uuid.NewString()

	group := room.MintGroup()
	_, err := st.Append(ctx, &models.ChatMessage{
		RoomID:     group.String(),
		SenderID:   creator,
		SenderRole: models.RoleSystem,
		Text:       `Group "Team A" created`,
		GroupName:  "Team A",
		Members:    []string{creator, memberX, memberY},
	})
	if err != nil {
		t.Fatal(err)
	}

	agg := New(st, directory.Static{})
	summaries, err := agg.ListConversations(ctx, memberX)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Kind != KindGroup {
		t.Fatalf("kind = %q, want group", s.Kind)
	}
	if s.GroupName != "Team A" {
		t.Fatalf("groupName = %q, want Team A", s.GroupName)
	}
	if s.CounterpartID != "" {
		t.Fatalf("group summary must not carry a counterpart, got %q", s.CounterpartID)
	}
	if !strings.Contains(s.LastMessage, "Team A") {
		t.Fatalf("founding message preview should name the group, got %q", s.LastMessage)
	}
}

func TestListConversationsSortedByActivity(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	recruiter := uuid.NewString()
	c1, c2 := uuid.NewString(), uuid.NewString()

	r1, _ := room.ResolveDirect(recruiter, c1)
	r2, _ := room.ResolveDirect(recruiter, c2)

	base := time.Now().UTC()
	for _, m := range []*models.ChatMessage{
		{RoomID: r1.String(), SenderID: c1, SenderRole: models.RoleCandidate, Text: "older", Timestamp: base.Add(-time.Hour)},
		{RoomID: r2.String(), SenderID: c2, SenderRole: models.RoleCandidate, Text: "newer", Timestamp: base},
	} {
		if _, err := st.Append(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	agg := New(st, directory.Static{})
	summaries, err := agg.ListConversations(ctx, recruiter)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].LastMessage != "newer" {
		t.Fatalf("summaries not sorted by activity: first is %q", summaries[0].LastMessage)
	}
}
