// Package room defines the addressing scheme for conversations.
//
// A room id is one of two encodings:
//
//	direct: "<a>_<b>"            two participant UUIDs in canonical order
//	group:  "group_<ms>_<rand>"  an opaque minted token
//
// All parsing goes through ID so no other package ever splits a room id
// by hand.
package room

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two room-id encodings.
type Kind int

const (
	KindDirect Kind = iota
	KindGroup
)

const groupPrefix = "group_"

var ErrMalformed = errors.New("malformed room id")

// ID is a decoded room address. For direct rooms A and B hold the two
// participant ids in canonical (sorted) order; for group rooms Token
// holds the minted suffix.
type ID struct {
	Kind  Kind
	A, B  string
	Token string
}

// ResolveDirect returns the room for a 1:1 conversation between two
// identities. The pair is canonicalized first, so the same two people
// always land in the same room no matter who initiates.
func ResolveDirect(a, b string) (ID, error) {
	if _, err := uuid.Parse(a); err != nil {
		return ID{}, fmt.Errorf("%w: participant %q", ErrMalformed, a)
	}
	if _, err := uuid.Parse(b); err != nil {
		return ID{}, fmt.Errorf("%w: participant %q", ErrMalformed, b)
	}
	if a == b {
		return ID{}, fmt.Errorf("%w: participants must differ", ErrMalformed)
	}
	if a > b {
		a, b = b, a
	}
	return ID{Kind: KindDirect, A: a, B: b}, nil
}

// MintGroup produces a fresh group room id. The token is timestamped
// plus random suffix; collision-resistant at this scale, not
// cryptographically unique.
func MintGroup() ID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ID{
		Kind:  KindGroup,
		Token: fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix),
	}
}

// String encodes the id to its wire form.
func (id ID) String() string {
	if id.Kind == KindGroup {
		return groupPrefix + id.Token
	}
	return id.A + "_" + id.B
}

// Parse decodes a wire room id, branching on the group prefix before
// any underscore splitting.
func Parse(s string) (ID, error) {
	if token, ok := strings.CutPrefix(s, groupPrefix); ok {
		if token == "" {
			return ID{}, fmt.Errorf("%w: empty group token", ErrMalformed)
		}
		return ID{Kind: KindGroup, Token: token}, nil
	}
	a, b, ok := strings.Cut(s, "_")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return ResolveDirect(a, b)
}

// Counterpart returns the participant that is not viewer. Only direct
// rooms have a counterpart.
func (id ID) Counterpart(viewer string) (string, bool) {
	if id.Kind != KindDirect {
		return "", false
	}
	switch viewer {
	case id.A:
		return id.B, true
	case id.B:
		return id.A, true
	}
	return "", false
}

// Has reports whether the identity participates in a direct room.
// Group membership is not encoded in the id and always reports false.
func (id ID) Has(identity string) bool {
	return id.Kind == KindDirect && (id.A == identity || id.B == identity)
}
