package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/promptparty/server/internal/auth"
	"github.com/promptparty/server/internal/game"
	"github.com/promptparty/server/internal/presence"
	"github.com/promptparty/server/internal/room"
	"github.com/promptparty/server/internal/room/events"
)

// memKV is an in-memory stand-in for the shared presence store. TTLs are
// ignored; these tests never advance past an expiry.
type memKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]string)}
}

func (m *memKV) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", presence.ErrNotFound
	}
	return value, nil
}

func (m *memKV) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type testGateway struct {
	svc      *Service
	registry *room.Registry
	kv       *memKV
	clock    *clockwork.FakeClock
	cancel   context.CancelFunc
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	clock := clockwork.NewFakeClock()
	authSvc, err := auth.NewService([]byte("test-secret"), 0, clock)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	kv := newMemKV()
	tracker := presence.NewTracker(kv, 0)

	svc := NewService(DefaultConnectionConfig(), authSvc, tracker, nil)
	registry := room.NewRegistry(game.DefaultConfig(), clock, svc, nil)
	svc.SetRegistry(registry)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)
	t.Cleanup(cancel)

	return &testGateway{svc: svc, registry: registry, kv: kv, clock: clock, cancel: cancel}
}

// newConn builds a connection without a real websocket. SendTo and room
// broadcasts only touch the Send channel while it has buffer room.
func (g *testGateway) newConn(id string) *Connection {
	return &Connection{
		ID:      id,
		Send:    make(chan []byte, 64),
		Manager: g.svc.manager,
	}
}

func (g *testGateway) send(t *testing.T, conn *Connection, eventType InboundType, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(InboundEnvelope{Type: eventType, Data: data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	g.svc.HandleMessage(context.Background(), conn, frame)
}

func recvEvent(t *testing.T, conn *Connection) *events.Event {
	t.Helper()
	select {
	case raw := <-conn.Send:
		var event events.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return &event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received within 2s")
		return nil
	}
}

// recvType reads events until one of the wanted type arrives, skipping
// interleaved room_state broadcasts.
func recvType(t *testing.T, conn *Connection, want events.Type) *events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-conn.Send:
			var event events.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if event.Type == want {
				return &event
			}
		case <-deadline:
			t.Fatalf("no %s event received within 2s", want)
			return nil
		}
	}
}

func authOK(t *testing.T, event *events.Event) AuthOKPayload {
	t.Helper()
	if event.Type != events.TypeAuthOK {
		t.Fatalf("event type = %s, want %s", event.Type, events.TypeAuthOK)
	}
	var payload AuthOKPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal auth_ok payload: %v", err)
	}
	return payload
}

func wantErrorEvent(t *testing.T, event *events.Event, code room.Code) {
	t.Helper()
	if event.Type != events.TypeError {
		t.Fatalf("event type = %s, want %s", event.Type, events.TypeError)
	}
	var payload events.ErrorPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Code != string(code) {
		t.Fatalf("error code = %s, want %s (message %q)", payload.Code, code, payload.Message)
	}
}

func TestAuthCreateRoom(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})

	payload := authOK(t, recvEvent(t, conn))
	if payload.Token == "" {
		t.Fatal("auth_ok carried no token")
	}
	if len(payload.Room.Players) != 1 {
		t.Fatalf("players = %d, want 1", len(payload.Room.Players))
	}
	if !payload.Room.Players[0].IsHost {
		t.Fatal("room creator is not host")
	}
	if payload.Room.JoinCode == "" {
		t.Fatal("auth_ok carried no join code")
	}

	if _, authed := conn.PlayerID(); !authed {
		t.Fatal("connection not bound after auth")
	}
	if g.registry.Count() != 1 {
		t.Fatalf("registry count = %d, want 1", g.registry.Count())
	}
}

func TestAuthJoinByCode(t *testing.T) {
	g := newTestGateway(t)

	host := g.newConn("host")
	g.send(t, host, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	hostAuth := authOK(t, recvEvent(t, host))

	guest := g.newConn("guest")
	g.send(t, guest, InboundAuth, AuthPayload{JoinCode: hostAuth.Room.JoinCode, DisplayName: "bob"})
	guestAuth := authOK(t, recvType(t, guest, events.TypeAuthOK))

	if guestAuth.RoomID != hostAuth.RoomID {
		t.Fatalf("guest joined room %s, want %s", guestAuth.RoomID, hostAuth.RoomID)
	}
	if len(guestAuth.Room.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(guestAuth.Room.Players))
	}
	for _, p := range guestAuth.Room.Players {
		if p.DisplayName == "bob" && p.IsHost {
			t.Fatal("second joiner must not be host")
		}
	}
}

func TestAuthUnknownJoinCode(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundAuth, AuthPayload{JoinCode: "ZZZZZZ", DisplayName: "alice"})
	wantErrorEvent(t, recvEvent(t, conn), room.CodeRoomNotFound)
}

func TestAuthBadToken(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundAuth, AuthPayload{Token: "not-a-jwt"})
	wantErrorEvent(t, recvEvent(t, conn), room.CodeAuthFailed)

	if _, authed := conn.PlayerID(); authed {
		t.Fatal("connection bound after failed auth")
	}
}

func TestAuthMissingMode(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundAuth, AuthPayload{DisplayName: "alice"})
	wantErrorEvent(t, recvEvent(t, conn), room.CodeAuthFailed)
}

func TestUnauthenticatedEventRejected(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundStartRound, struct{}{})
	wantErrorEvent(t, recvEvent(t, conn), room.CodeAuthFailed)
}

func TestMalformedFrame(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.svc.HandleMessage(context.Background(), conn, []byte("not json"))
	wantErrorEvent(t, recvEvent(t, conn), room.CodeBadRequest)
}

func TestStartRoundBroadcast(t *testing.T) {
	g := newTestGateway(t)

	host := g.newConn("host")
	g.send(t, host, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	hostAuth := authOK(t, recvEvent(t, host))

	guest := g.newConn("guest")
	g.send(t, guest, InboundAuth, AuthPayload{JoinCode: hostAuth.Room.JoinCode, DisplayName: "bob"})
	recvType(t, guest, events.TypeAuthOK)

	g.send(t, host, InboundStartRound, struct{}{})

	hostEvent := recvType(t, host, events.TypeRoundStarted)
	guestEvent := recvType(t, guest, events.TypeRoundStarted)

	var started events.RoundStartedPayload
	if err := json.Unmarshal(hostEvent.Data, &started); err != nil {
		t.Fatalf("unmarshal round_started: %v", err)
	}
	if started.Room.Phase != "prompting" {
		t.Fatalf("phase = %s, want prompting", started.Room.Phase)
	}
	if guestEvent.ID != hostEvent.ID {
		t.Fatal("host and guest saw different round_started events")
	}
}

func TestStartRoundByGuestRejected(t *testing.T) {
	g := newTestGateway(t)

	host := g.newConn("host")
	g.send(t, host, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	hostAuth := authOK(t, recvEvent(t, host))

	guest := g.newConn("guest")
	g.send(t, guest, InboundAuth, AuthPayload{JoinCode: hostAuth.Room.JoinCode, DisplayName: "bob"})
	recvType(t, guest, events.TypeAuthOK)

	g.send(t, guest, InboundStartRound, struct{}{})
	wantErrorEvent(t, recvType(t, guest, events.TypeError), room.CodeNotHost)
}

func TestTokenReconnect(t *testing.T) {
	g := newTestGateway(t)

	conn := g.newConn("c1")
	g.send(t, conn, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	first := authOK(t, recvEvent(t, conn))

	g.svc.HandleDisconnect(conn)

	replacement := g.newConn("c2")
	g.send(t, replacement, InboundAuth, AuthPayload{Token: first.Token})
	second := authOK(t, recvType(t, replacement, events.TypeAuthOK))

	if second.PlayerID != first.PlayerID {
		t.Fatalf("reconnect player = %s, want %s", second.PlayerID, first.PlayerID)
	}
	if second.RoomID != first.RoomID {
		t.Fatalf("reconnect room = %s, want %s", second.RoomID, first.RoomID)
	}
	for _, p := range second.Room.Players {
		if p.ID == second.PlayerID && !p.Active {
			t.Fatal("reconnected player still inactive")
		}
	}
}

func TestAuthTwiceRejected(t *testing.T) {
	g := newTestGateway(t)
	conn := g.newConn("c1")

	g.send(t, conn, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	authOK(t, recvEvent(t, conn))

	g.send(t, conn, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	wantErrorEvent(t, recvType(t, conn, events.TypeError), room.CodeBadRequest)

	if g.registry.Count() != 1 {
		t.Fatalf("registry count = %d, want 1", g.registry.Count())
	}
}

func TestPresenceLifecycle(t *testing.T) {
	g := newTestGateway(t)

	conn := g.newConn("c1")
	g.send(t, conn, InboundAuth, AuthPayload{CreateRoom: true, DisplayName: "alice"})
	payload := authOK(t, recvEvent(t, conn))

	key := "presence:" + payload.RoomID + ":" + payload.PlayerID
	if connID, err := g.kv.Get(context.Background(), key); err != nil || connID != "c1" {
		t.Fatalf("presence entry = %q, %v; want c1, nil", connID, err)
	}

	g.svc.HandleDisconnect(conn)
	if _, err := g.kv.Get(context.Background(), key); err != presence.ErrNotFound {
		t.Fatalf("presence entry survived disconnect: %v", err)
	}
}

func TestSendAfterUnregisterIsDropped(t *testing.T) {
	g := newTestGateway(t)
	manager := g.svc.manager
	roomID := uuid.New()

	conn := g.newConn("c1")
	manager.Bind(conn, uuid.New(), roomID)
	peer := g.newConn("c2")
	manager.Bind(peer, uuid.New(), roomID)

	manager.unregisterConnection(conn)

	event, err := events.New(roomID, events.TypeRoomState, struct{}{})
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}

	// Direct delivery to the departed connection must be a silent no-op.
	manager.SendTo(conn, event)

	// Room fan-out right after a sibling dropped still reaches live peers.
	manager.handleBroadcast(broadcastMessage{roomID: roomID, event: event})
	if got := recvEvent(t, peer); got.Type != events.TypeRoomState {
		t.Fatalf("peer event type = %s, want %s", got.Type, events.TypeRoomState)
	}

	select {
	case _, open := <-conn.Send:
		if open {
			t.Fatal("unregistered connection still received data")
		}
	default:
		t.Fatal("send channel not closed after unregister")
	}

	// Unregistering again must not double-close the channel.
	manager.unregisterConnection(conn)
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"type":"start_round","data":{}}`, false},
		{"missing type", `{"data":{}}`, true},
		{"not json", `garbage`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeInbound(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
