package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/auth"
	"github.com/harborcrm/harbor/internal/chat"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/realtime"
	"github.com/harborcrm/harbor/internal/store"
	"github.com/harborcrm/harbor/tests/testutil"
)

const readTimeout = 5 * time.Second

type gatewayFixture struct {
	server  *httptest.Server
	store   *store.SQLiteStore
	tenant  *model.Tenant
	foreign *model.Tenant
	task    *model.Task
}

// newGatewayFixture starts a gateway on a test server with two tenants:
// "acme" (viewer users alice and bob, one capless outsider) and
// "globex" (superadmin mallory). Tokens are "<name>-token".
func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	s := testutil.NewTestStore(t)

	tenant := testutil.SeedTenant(t, s, "acme")
	viewerRole := testutil.SeedRole(t, s, tenant.ID, "viewer", false, true, false)
	staffRole := testutil.SeedRole(t, s, tenant.ID, "staff", false, false, false)
	foreign := testutil.SeedTenant(t, s, "globex")
	foreignAdmin := testutil.SeedRole(t, s, foreign.ID, "admin", true, false, false)

	seedToken := func(name, tenantID, roleID string) {
		user := testutil.SeedUser(t, s, tenantID, name, roleID, nil)
		if err := s.CreateAPIToken(t.Context(), name+"-token", user.ID); err != nil {
			t.Fatalf("seeding token for %s: %v", name, err)
		}
	}
	seedToken("alice", tenant.ID, viewerRole.ID)
	seedToken("bob", tenant.ID, viewerRole.ID)
	seedToken("outsider", tenant.ID, staffRole.ID)
	seedToken("mallory", foreign.ID, foreignAdmin.ID)

	evaluator := access.NewEvaluator(s)
	gateway := realtime.NewGateway(
		auth.NewStoreResolver(s),
		evaluator,
		chat.NewService(s, evaluator, nil),
		realtime.NewManager(),
		nil,
		realtime.Config{PingInterval: time.Second},
	)

	server := httptest.NewServer(gateway)
	t.Cleanup(server.Close)

	return &gatewayFixture{
		server:  server,
		store:   s,
		tenant:  tenant,
		foreign: foreign,
		task:    testutil.SeedTask(t, s, tenant.ID, "Demo install", nil, nil),
	}
}

func (f *gatewayFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing as %s: %v", token, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Outbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var event realtime.Outbound
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return event
}

func TestHandshakeFailsClosed(t *testing.T) {
	f := newGatewayFixture(t)

	for _, tt := range []struct {
		name string
		url  string
	}{
		{"missing credential", "ws" + strings.TrimPrefix(f.server.URL, "http")},
		{"bogus credential", "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=wrong"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			if err == nil {
				conn.Close()
				t.Fatal("handshake succeeded without valid credential")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("response = %+v, want 401", resp)
			}
			resp.Body.Close()
		})
	}
}

func TestMessageBroadcastToRoom(t *testing.T) {
	f := newGatewayFixture(t)
	alice := f.dial(t, "alice-token")
	bob := f.dial(t, "bob-token")

	join := realtime.Inbound{Type: realtime.EventJoinRoom, TenantID: f.tenant.ID, TaskID: f.task.ID}
	if err := alice.WriteJSON(join); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := bob.WriteJSON(join); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	// Alice seeing bob come online proves both joins are processed.
	online := readEvent(t, alice)
	if online.Type != realtime.EventUserOnline {
		t.Fatalf("alice got %+v, want user-online", online)
	}

	if err := bob.WriteJSON(realtime.Inbound{
		Type:     realtime.EventSendMessage,
		TenantID: f.tenant.ID,
		TaskID:   f.task.ID,
		Content:  "kickoff at nine",
	}); err != nil {
		t.Fatalf("bob send: %v", err)
	}

	got := readEvent(t, alice)
	echo := readEvent(t, bob)
	for name, event := range map[string]realtime.Outbound{"alice": got, "bob": echo} {
		if event.Type != realtime.EventNewMessage || event.Message == nil {
			t.Fatalf("%s got %+v, want new-message with payload", name, event)
		}
	}

	// Every observer sees the same persisted identity, not its own copy.
	if got.Message.ID != echo.Message.ID {
		t.Errorf("message ids differ: %s vs %s", got.Message.ID, echo.Message.ID)
	}
	if got.Message.ID == "" || got.Message.CreatedAt.IsZero() {
		t.Errorf("broadcast missing server-assigned fields: %+v", got.Message)
	}
}

func TestTypingRelayedToOthersOnly(t *testing.T) {
	f := newGatewayFixture(t)
	alice := f.dial(t, "alice-token")
	bob := f.dial(t, "bob-token")

	join := realtime.Inbound{Type: realtime.EventJoinRoom, TenantID: f.tenant.ID, TaskID: f.task.ID}
	if err := alice.WriteJSON(join); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := bob.WriteJSON(join); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if ev := readEvent(t, alice); ev.Type != realtime.EventUserOnline {
		t.Fatalf("alice got %+v, want user-online", ev)
	}

	if err := bob.WriteJSON(realtime.Inbound{
		Type: realtime.EventTypingStart, TenantID: f.tenant.ID, TaskID: f.task.ID,
	}); err != nil {
		t.Fatalf("bob typing: %v", err)
	}
	if err := bob.WriteJSON(realtime.Inbound{
		Type: realtime.EventTypingStop, TenantID: f.tenant.ID, TaskID: f.task.ID,
	}); err != nil {
		t.Fatalf("bob stop typing: %v", err)
	}

	if ev := readEvent(t, alice); ev.Type != realtime.EventUserTyping {
		t.Fatalf("alice got %+v, want user-typing", ev)
	}
	if ev := readEvent(t, alice); ev.Type != realtime.EventUserStoppedTyping {
		t.Fatalf("alice got %+v, want user-stopped-typing", ev)
	}
}

func TestCrossTenantEventsRejected(t *testing.T) {
	f := newGatewayFixture(t)

	t.Run("foreign tenant task id", func(t *testing.T) {
		mallory := f.dial(t, "mallory-token")
		if err := mallory.WriteJSON(realtime.Inbound{
			Type: realtime.EventJoinRoom, TenantID: f.foreign.ID, TaskID: f.task.ID,
		}); err != nil {
			t.Fatalf("mallory join: %v", err)
		}
		event := readEvent(t, mallory)
		if event.Type != realtime.EventError || event.Code != realtime.CodeNotFound {
			t.Fatalf("event = %+v, want error/not_found", event)
		}
	})

	t.Run("tenant mismatch in payload", func(t *testing.T) {
		alice := f.dial(t, "alice-token")
		if err := alice.WriteJSON(realtime.Inbound{
			Type: realtime.EventJoinRoom, TenantID: f.foreign.ID, TaskID: f.task.ID,
		}); err != nil {
			t.Fatalf("alice join: %v", err)
		}
		event := readEvent(t, alice)
		if event.Type != realtime.EventError || event.Code != realtime.CodeForbidden {
			t.Fatalf("event = %+v, want error/forbidden", event)
		}
	})
}

func TestDeniedSendNeverReachesRoom(t *testing.T) {
	f := newGatewayFixture(t)
	alice := f.dial(t, "alice-token")
	bob := f.dial(t, "bob-token")
	outsider := f.dial(t, "outsider-token")

	join := realtime.Inbound{Type: realtime.EventJoinRoom, TenantID: f.tenant.ID, TaskID: f.task.ID}
	if err := alice.WriteJSON(join); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := bob.WriteJSON(join); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if ev := readEvent(t, alice); ev.Type != realtime.EventUserOnline {
		t.Fatalf("alice got %+v, want user-online", ev)
	}

	// The outsider has no capability and no assignment; the error goes
	// to them alone.
	if err := outsider.WriteJSON(realtime.Inbound{
		Type: realtime.EventSendMessage, TenantID: f.tenant.ID, TaskID: f.task.ID, Content: "psst",
	}); err != nil {
		t.Fatalf("outsider send: %v", err)
	}
	event := readEvent(t, outsider)
	if event.Type != realtime.EventError || event.Code != realtime.CodeForbidden {
		t.Fatalf("outsider got %+v, want error/forbidden", event)
	}

	// The next thing alice sees is bob's legitimate message, proving
	// nothing from the denied send leaked into the room.
	if err := bob.WriteJSON(realtime.Inbound{
		Type: realtime.EventSendMessage, TenantID: f.tenant.ID, TaskID: f.task.ID, Content: "all clear",
	}); err != nil {
		t.Fatalf("bob send: %v", err)
	}
	next := readEvent(t, alice)
	if next.Type != realtime.EventNewMessage || next.Message == nil || next.Message.Content != "all clear" {
		t.Fatalf("alice got %+v, want bob's message", next)
	}
}
