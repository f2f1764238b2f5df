package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/promptparty/server/internal/room/events"
)

// MessageHandler receives decoded transport callbacks from connections.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn *Connection, raw []byte)
	HandleDisconnect(conn *Connection)
}

// ConnectionManager owns every live websocket connection, pooled by room.
// It implements room.Broadcaster: broadcasts are queued on a channel and
// fanned out off the room's serialized mutation path.
type ConnectionManager struct {
	roomConnections map[uuid.UUID]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  MessageHandler

	broadcastCh chan broadcastMessage
}

// Connection represents one websocket client. PlayerID and RoomID are zero
// until the auth handshake succeeds.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	mu         sync.RWMutex
	playerID   uuid.UUID
	roomID     uuid.UUID
	authed     bool
	sendClosed bool
}

// ConnectionConfig holds transport tunables for websocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	roomID uuid.UUID
	event  *events.Event
}

// DefaultConnectionConfig returns the stock websocket tunables.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Party clients connect from arbitrary origins (phones on
			// hotel wifi); the auth handshake is the access control.
			return true
		},
	}
}

// NewConnectionManager creates a manager routing messages to the handler.
func NewConnectionManager(config ConnectionConfig, handler MessageHandler) *ConnectionManager {
	return &ConnectionManager{
		roomConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		handler:     handler,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes queued broadcasts until the context is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a websocket and starts the
// connection's pumps. The connection stays unbound until auth succeeds.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("conn_id", connection.ID).
		Str("remote", r.RemoteAddr).
		Msg("websocket connection established")
	return nil
}

// Bind attaches an authenticated identity to the connection and pools it
// under its room for broadcasts.
func (cm *ConnectionManager) Bind(conn *Connection, playerID, roomID uuid.UUID) {
	conn.mu.Lock()
	conn.playerID = playerID
	conn.roomID = roomID
	conn.authed = true
	conn.mu.Unlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.roomConnections[roomID] == nil {
		cm.roomConnections[roomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[roomID][conn] = true
}

// Broadcast queues an event for every connection in the room. Implements
// room.Broadcaster; it never blocks the caller.
func (cm *ConnectionManager) Broadcast(roomID uuid.UUID, event *events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{roomID: roomID, event: event}:
	default:
		log.Warn().Str("room_id", roomID.String()).Msg("broadcast channel full, dropping event")
	}
}

// SendTo delivers an event to a single connection, bypassing room fan-out.
// Used for auth responses and per-event error replies.
func (cm *ConnectionManager) SendTo(conn *Connection, event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal direct event")
		return
	}
	cm.deliver(conn, data)
}

// deliver enqueues data on the connection's send buffer. The closed check
// and the send share the connection lock with closeSend, so a connection
// unregistering concurrently can never turn this into a send on a closed
// channel. A full buffer on a live connection drops the client.
func (cm *ConnectionManager) deliver(conn *Connection, data []byte) {
	conn.mu.RLock()
	if conn.sendClosed {
		conn.mu.RUnlock()
		return
	}
	select {
	case conn.Send <- data:
		conn.mu.RUnlock()
	default:
		conn.mu.RUnlock()
		log.Warn().Str("conn_id", conn.ID).Msg("send buffer full, closing connection")
		cm.closeConnection(conn)
	}
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	connections := cm.roomConnections[message.roomID]
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast event")
		return
	}

	for _, conn := range targets {
		cm.deliver(conn, data)
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("room_id", message.roomID.String()).
		Int("connections", len(targets)).
		Msg("event broadcast")
}

func (cm *ConnectionManager) closeConnection(conn *Connection) {
	cm.unregisterConnection(conn)
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	conn.mu.RLock()
	roomID := conn.roomID
	authed := conn.authed
	conn.mu.RUnlock()

	cm.mu.Lock()
	if authed {
		if connections, exists := cm.roomConnections[roomID]; exists {
			delete(connections, conn)
			if len(connections) == 0 {
				delete(cm.roomConnections, roomID)
			}
		}
	}
	cm.mu.Unlock()

	conn.closeSend()

	log.Info().
		Str("conn_id", conn.ID).
		Bool("authed", authed).
		Msg("connection unregistered")
}

// Stats returns connection counts per room for the stats endpoint.
func (cm *ConnectionManager) Stats() (totalConnections, activeRooms int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, connections := range cm.roomConnections {
		totalConnections += len(connections)
	}
	return totalConnections, len(cm.roomConnections)
}

// PlayerID returns the bound player identity, or false before auth.
func (c *Connection) PlayerID() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID, c.authed
}

// RoomID returns the bound room, or false before auth.
func (c *Connection) RoomID() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.authed
}

// closeSend closes the send channel exactly once. Safe against repeated
// unregistration; the writePump drains and exits on the closed channel.
func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.Send)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.handler.HandleDisconnect(c)
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("unexpected close")
			}
			break
		}
		c.Manager.handler.HandleMessage(context.Background(), c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
