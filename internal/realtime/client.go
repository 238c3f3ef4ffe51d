package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harborcrm/harbor/internal/model"
)

const (
	// writeWait is the deadline for a single write to the peer.
	writeWait = 10 * time.Second

	// maxEventSize caps inbound event payloads.
	maxEventSize = 64 * 1024

	// sendQueueSize is the per-connection outbound buffer. A member
	// whose queue is full misses events; broadcast is best effort.
	sendQueueSize = 64
)

// Client is one authenticated realtime connection. The user and tenant
// are fixed at handshake; every event the connection issues is checked
// against them.
type Client struct {
	user   *model.User
	conn   *websocket.Conn
	send   chan Outbound
	logger *slog.Logger
}

func newClient(user *model.User, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		user:   user,
		conn:   conn,
		send:   make(chan Outbound, sendQueueSize),
		logger: logger,
	}
}

// User returns the authenticated user bound to this connection.
func (c *Client) User() *model.User {
	return c.user
}

// enqueue queues an outbound event without blocking. A full queue means
// the peer is not draining; the event is dropped and logged rather than
// letting one slow connection stall a whole room.
func (c *Client) enqueue(event Outbound) {
	select {
	case c.send <- event:
	default:
		c.logger.Warn("dropping event for slow connection",
			"user", c.user.ID, "event", event.Type)
	}
}

// readPump reads inbound events and hands them to the gateway until the
// connection dies. Runs on the connection's own goroutine; pong
// handling extends the read deadline.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.disconnect(c)
		c.conn.Close()
	}()

	pongWait := 2 * g.pingInterval
	c.conn.SetReadLimit(maxEventSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("connection read error", "user", c.user.ID, "err", err)
			}
			return
		}

		var event Inbound
		if err := json.Unmarshal(data, &event); err != nil {
			c.enqueue(errorEvent("", CodeBadEvent, "malformed event payload"))
			continue
		}
		g.handleEvent(c, event)
	}
}

// writePump serializes queued events to the peer and keeps the
// connection alive with periodic pings. A missed write deadline or a
// failed ping closes the connection; readPump then runs disconnect
// cleanup.
func (c *Client) writePump(g *Gateway) {
	ticker := time.NewTicker(g.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("connection write error", "user", c.user.ID, "err", err)
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
