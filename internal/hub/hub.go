// Package hub is the realtime fan-out layer. It persists nothing: a
// message must already be appended to the store before it is published
// here, so delivery is a latency optimization, never the system of
// record.
package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
)

// Subscriber is a live connection attached to one or more rooms.
// Send must not block: it reports false when the subscriber's queue is
// full, and the hub evicts it.
type Subscriber interface {
	ID() string
	Send(payload []byte) bool
	Close()
}

// Hub keys active subscribers by room and fans published payloads out
// to everyone in the room except the originator.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Subscriber]bool
	logger zerolog.Logger
	bridge *Bridge
}

// New creates an empty hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Subscriber]bool),
		logger: logger,
	}
}

// SetBridge attaches a cross-instance relay. Publishes are forwarded to
// it after local delivery.
func (h *Hub) SetBridge(b *Bridge) {
	h.bridge = b
}

// Subscribe attaches a subscriber to a room's fan-out group.
func (h *Hub) Subscribe(sub Subscriber, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.rooms[roomID]
	if set == nil {
		set = make(map[Subscriber]bool)
		h.rooms[roomID] = set
	}
	set[sub] = true

	h.logger.Debug().Str("room", roomID).Str("subscriber", sub.ID()).Msg("subscribed")
}

// Unsubscribe detaches a subscriber from every room. Called when the
// underlying connection closes.
func (h *Hub) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, set := range h.rooms {
		if set[sub] {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// Publish delivers payload to every subscriber of the room except the
// one whose ID matches originID. Delivery is non-blocking per
// subscriber; a subscriber whose queue is full is evicted rather than
// allowed to stall the others.
func (h *Hub) Publish(roomID string, payload []byte, originID string) {
	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.rooms[roomID]))
	for sub := range h.rooms[roomID] {
		if sub.ID() != originID {
			snapshot = append(snapshot, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.Send(payload) {
			h.logger.Warn().
				Str("room", roomID).
				Str("subscriber", sub.ID()).
				Msg("send queue full, evicting slow subscriber")
			metrics.FanoutDropped.Inc()
			h.Unsubscribe(sub)
			sub.Close()
		}
	}

	if h.bridge != nil {
		h.bridge.Forward(roomID, payload)
	}
}

// deliverLocal is Publish without the bridge forwarding; bridged
// payloads must not loop back out.
func (h *Hub) deliverLocal(roomID string, payload []byte) {
	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.rooms[roomID]))
	for sub := range h.rooms[roomID] {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.Send(payload) {
			metrics.FanoutDropped.Inc()
			h.Unsubscribe(sub)
			sub.Close()
		}
	}
}
