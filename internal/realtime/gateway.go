// Package realtime is the websocket layer of the task collaboration
// subsystem: handshake authentication, per-event access checks, room
// presence, and broadcast of task conversation activity.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/auth"
	"github.com/harborcrm/harbor/internal/chat"
)

// Gateway upgrades authenticated connections and dispatches their
// events. A connection that cannot present a valid credential is
// refused before the upgrade; no event is ever processed for it.
type Gateway struct {
	resolver     auth.Resolver
	access       *access.Evaluator
	chat         *chat.Service
	manager      *Manager
	logger       *slog.Logger
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// Config carries gateway settings.
type Config struct {
	// PingInterval is how often each connection is pinged. A peer that
	// misses two consecutive pongs is treated as disconnected.
	PingInterval time.Duration

	// AllowedOrigins whitelists handshake Origin headers. Empty means
	// same-origin only (the gorilla default check).
	AllowedOrigins []string
}

// NewGateway wires a gateway.
func NewGateway(resolver auth.Resolver, ev *access.Evaluator, chatSvc *chat.Service, manager *Manager, logger *slog.Logger, cfg Config) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	g := &Gateway{
		resolver:     resolver,
		access:       ev,
		chat:         chatSvc,
		manager:      manager,
		logger:       logger,
		pingInterval: cfg.PingInterval,
	}
	if len(cfg.AllowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		g.upgrader.CheckOrigin = func(r *http.Request) bool {
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
	return g
}

// Manager returns the presence manager, for request/response callers
// that want a room's online users.
func (g *Gateway) Manager() *Manager {
	return g.manager
}

// ServeHTTP is the websocket endpoint. The credential comes from the
// Authorization header or, for browser clients that cannot set headers
// on websocket handshakes, the "token" query parameter.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}

	user, err := g.resolver.Resolve(r.Context(), credential)
	if err != nil {
		g.logger.Debug("handshake refused", "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		g.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	c := newClient(user, conn, g.logger)
	g.logger.Info("connection opened", "user", user.ID, "tenant", user.TenantID)

	go c.writePump(g)
	c.readPump(g)
}

// disconnect runs connection-level cleanup: the client leaves every
// room it was in, each affected room is notified, and the send queue
// is closed so writePump exits.
func (g *Gateway) disconnect(c *Client) {
	g.manager.Drop(c)
	close(c.send)
	g.logger.Info("connection closed", "user", c.user.ID)
}

// handleEvent validates and dispatches one inbound event. Validation
// failures are answered with an error event to the originating
// connection only; they never reach other room members.
func (g *Gateway) handleEvent(c *Client, event Inbound) {
	ctx := context.Background()

	// Cross-tenant isolation: the tenant echoed in the payload must
	// match the tenant fixed at handshake, whatever the task id says.
	if event.TenantID != c.user.TenantID {
		c.enqueue(errorEvent(event.TaskID, CodeForbidden, "tenant mismatch"))
		return
	}
	if event.TaskID == "" {
		c.enqueue(errorEvent("", CodeBadEvent, "missing task id"))
		return
	}

	switch event.Type {
	case EventJoinRoom:
		if _, err := g.access.AuthorizeView(ctx, c.user, event.TaskID); err != nil {
			c.enqueue(errorEvent(event.TaskID, errorCode(err), "cannot join room"))
			return
		}
		g.manager.Join(event.TaskID, c)

	case EventLeaveRoom:
		g.manager.Leave(event.TaskID, c)

	case EventSendMessage:
		msg, err := g.chat.Send(ctx, c.user, event.TaskID, event.Content, event.Kind, event.AttachmentID, event.Nonce)
		if err != nil {
			c.enqueue(errorEvent(event.TaskID, errorCode(err), "cannot send message"))
			return
		}
		// The store write is authoritative; broadcast is best-effort
		// notification of the persisted row.
		g.manager.Broadcast(event.TaskID, Outbound{
			Type:    EventNewMessage,
			TaskID:  event.TaskID,
			UserID:  c.user.ID,
			Message: msg,
		}, nil)

	case EventTypingStart, EventTypingStop:
		if _, err := g.access.AuthorizeView(ctx, c.user, event.TaskID); err != nil {
			c.enqueue(errorEvent(event.TaskID, errorCode(err), "cannot signal typing"))
			return
		}
		out := EventUserTyping
		if event.Type == EventTypingStop {
			out = EventUserStoppedTyping
		}
		g.manager.BroadcastExceptUser(event.TaskID, Outbound{
			Type:   out,
			TaskID: event.TaskID,
			UserID: c.user.ID,
		}, c.user.ID)

	default:
		c.enqueue(errorEvent(event.TaskID, CodeBadEvent, "unknown event type"))
	}
}
