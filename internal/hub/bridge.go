package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	bridgeChannel   = "chat:fanout"
	bridgeQueueSize = 256
)

// envelope is the wire form published to Redis. Instance tags prevent a
// publish from echoing back into the hub that originated it.
type envelope struct {
	Instance string          `json:"instance"`
	RoomID   string          `json:"roomId"`
	Payload  json.RawMessage `json:"payload"`
}

// Bridge relays hub publishes across server instances through Redis
// pub/sub. Relay is best-effort: a Redis outage degrades realtime
// delivery to single-instance scope, nothing more.
type Bridge struct {
	client   *redis.Client
	instance string
	out      chan []byte
	logger   zerolog.Logger
}

// NewBridge creates a bridge with a unique instance id.
func NewBridge(client *redis.Client, logger zerolog.Logger) *Bridge {
	return &Bridge{
		client:   client,
		instance: uuid.NewString(),
		out:      make(chan []byte, bridgeQueueSize),
		logger:   logger,
	}
}

// Forward queues a payload for relay to other instances. It never
// blocks the publish path: when the queue is full the envelope is
// dropped and remote subscribers miss one delivery.
func (b *Bridge) Forward(roomID string, payload []byte) {
	env, err := json.Marshal(envelope{
		Instance: b.instance,
		RoomID:   roomID,
		Payload:  payload,
	})
	if err != nil {
		return
	}
	select {
	case b.out <- env:
	default:
		b.logger.Warn().Str("room", roomID).Msg("bridge queue full, dropping relay")
	}
}

// writeLoop drains the relay queue onto Redis.
func (b *Bridge) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.out:
			if err := b.client.Publish(ctx, bridgeChannel, env).Err(); err != nil {
				b.logger.Warn().Err(err).Msg("bridge publish failed")
			}
		}
	}
}

// Run relays queued publishes out and consumes remote ones in until
// ctx is cancelled, delivering each foreign envelope to the local hub.
func (b *Bridge) Run(ctx context.Context, h *Hub) {
	go b.writeLoop(ctx)

	sub := b.client.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			if env.Instance == b.instance {
				continue
			}
			h.deliverLocal(env.RoomID, env.Payload)
		}
	}
}
