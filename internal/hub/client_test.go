package hub

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
)

func directIDs(t *testing.T) (canonical, reversed string) {
	t.Helper()
	a, b := uuid.NewString(), uuid.NewString()
	rid, err := room.ResolveDirect(a, b)
	if err != nil {
		t.Fatalf("ResolveDirect: %v", err)
	}
	canonical = rid.String()
	if canonical == a+"_"+b {
		reversed = b + "_" + a
	} else {
		reversed = a + "_" + b
	}
	return canonical, reversed
}

func TestJoinEventCanonicalizesRoom(t *testing.T) {
	h := New(zerolog.Nop())
	c := NewClient("conn-a", h, nil, nil, zerolog.Nop())
	canonical, reversed := directIDs(t)

	c.handleEvent([]byte(`{"event":"join","roomId":"` + reversed + `"}`))

	h.Publish(canonical, []byte(`{"message":"hi"}`), "origin")
	select {
	case <-c.send:
	default:
		t.Fatal("join under the reversed spelling missed the canonical room's publish")
	}
}

func TestJoinEventRejectsMalformedRoom(t *testing.T) {
	h := New(zerolog.Nop())
	c := NewClient("conn-a", h, nil, nil, zerolog.Nop())

	c.handleEvent([]byte(`{"event":"join","roomId":"not-a-room"}`))

	h.mu.RLock()
	rooms := len(h.rooms)
	h.mu.RUnlock()
	if rooms != 0 {
		t.Fatalf("malformed join registered %d rooms", rooms)
	}
}

func TestMessageEventCanonicalizesRoom(t *testing.T) {
	h := New(zerolog.Nop())
	var posted string
	c := NewClient("conn-a", h, nil, func(roomID string, _ json.RawMessage) {
		posted = roomID
	}, zerolog.Nop())
	canonical, reversed := directIDs(t)

	c.handleEvent([]byte(`{"event":"message","roomId":"` + reversed + `","data":{"message":"hi"}}`))

	if posted != canonical {
		t.Errorf("post room = %q, want %q", posted, canonical)
	}
}
