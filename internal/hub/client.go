package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxEventSize   = 16 * 1024
	sendBufferSize = 64
)

// Event is the envelope spoken on the live channel. "join" attaches the
// connection to a room; "message" posts into one.
type Event struct {
	Event  string          `json:"event"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// PostFunc handles a "message" event from a connected client. It is
// responsible for durably appending before any fan-out happens.
type PostFunc func(roomID string, data json.RawMessage)

// Client adapts one websocket connection to a hub Subscriber.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	post   PostFunc
	logger zerolog.Logger
}

// NewClient wraps an upgraded connection. id must be unique per
// connection; it is what Publish uses to suppress the sender's echo.
func NewClient(id string, h *Hub, conn *websocket.Conn, post PostFunc, logger zerolog.Logger) *Client {
	return &Client{
		id:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		post:   post,
		logger: logger,
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Send queues a payload without blocking. False means the buffer is
// full and the hub should give up on this connection.
func (c *Client) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Safe to call more than once; writes
// to a closed websocket just error out of the pumps.
func (c *Client) Close() {
	c.conn.Close()
}

// ReadPump consumes events until the connection drops, then detaches
// the client from every room.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxEventSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("connection", c.id).Msg("unexpected close")
			}
			return
		}

		c.handleEvent(raw)
	}
}

// handleEvent dispatches one decoded event. Room ids are canonicalized
// before they touch the hub or the store, so both spellings of a direct
// pair land in the same room.
func (c *Client) handleEvent(raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.RoomID == "" {
		return
	}

	rid, err := room.Parse(ev.RoomID)
	if err != nil {
		return
	}
	roomID := rid.String()

	switch ev.Event {
	case "join":
		c.hub.Subscribe(c, roomID)
	case "message":
		if c.post != nil {
			c.post(roomID, ev.Data)
		}
	}
}

// WritePump drains the send queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unsubscribe(c)
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
