package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks authenticated connections and their session-room membership,
// and fans messages out to rooms. One live connection per user; a new
// connection for the same user replaces the old one.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // user_id -> connection
	rooms       map[string][]uuid.UUID    // session_id -> members
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string][]uuid.UUID),
		logger:      logger,
	}
}

// RegisterConnection adds a connection for a user, closing any prior one.
func (h *Hub) RegisterConnection(userID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[userID]; exists {
		old.Close()
	}

	h.connections[userID] = conn
	h.logger.Info().Str("user_id", userID.String()).Str("connection_id", conn.ID).Msg("connection registered")
}

// UnregisterConnection removes a user's connection and all room memberships.
// It is a no-op if the registered connection is not conn (the user already
// reconnected and the stale connection is tearing itself down).
func (h *Hub) UnregisterConnection(userID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, exists := h.connections[userID]
	if !exists || current != conn {
		return
	}

	current.Close()
	delete(h.connections, userID)

	for sessionID, members := range h.rooms {
		for i, uid := range members {
			if uid == userID {
				h.rooms[sessionID] = append(members[:i], members[i+1:]...)
				break
			}
		}
		if len(h.rooms[sessionID]) == 0 {
			delete(h.rooms, sessionID)
		}
	}

	h.logger.Info().Str("user_id", userID.String()).Msg("connection unregistered")
}

// IsConnected reports whether the user has a registered connection.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// JoinRoom adds a user to a session room for targeted broadcasts.
func (h *Hub) JoinRoom(userID uuid.UUID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[sessionID]
	for _, uid := range members {
		if uid == userID {
			return // already a member
		}
	}
	h.rooms[sessionID] = append(members, userID)
}

// LeaveRoom removes a user from a session room.
func (h *Hub) LeaveRoom(userID uuid.UUID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[sessionID]
	for i, uid := range members {
		if uid == userID {
			h.rooms[sessionID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(h.rooms[sessionID]) == 0 {
		delete(h.rooms, sessionID)
	}
}

// InRoom reports whether a user currently belongs to a session room.
func (h *Hub) InRoom(sessionID string, userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range h.rooms[sessionID] {
		if uid == userID {
			return true
		}
	}
	return false
}

// RoomsOf lists the session rooms a user belongs to.
func (h *Hub) RoomsOf(userID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var sessionIDs []string
	for sessionID, members := range h.rooms {
		for _, uid := range members {
			if uid == userID {
				sessionIDs = append(sessionIDs, sessionID)
				break
			}
		}
	}
	return sessionIDs
}

// Broadcast sends a message to every connection in a session room.
func (h *Hub) Broadcast(sessionID string, msg Message) error {
	h.mu.RLock()
	members := make([]uuid.UUID, len(h.rooms[sessionID]))
	copy(members, h.rooms[sessionID])
	h.mu.RUnlock()

	var firstErr error
	for _, userID := range members {
		if err := h.SendToUser(userID, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendToUser delivers a message to a specific user's connection.
func (h *Hub) SendToUser(userID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Connection wraps a WebSocket connection with a buffered send queue.
type Connection struct {
	ID     string
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and calls the handler until the connection drops.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Str("type", msg.Type).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "User connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
