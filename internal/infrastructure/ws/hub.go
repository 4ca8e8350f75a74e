// Package ws is the real-time channel: a per-user room registry over
// websocket connections. A user with at least one open connection is online.
package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrOffline is returned by SendToUser when the user has no open connection.
var ErrOffline = errors.New("user offline")

// Message is the envelope written to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	Time  int64       `json:"time"`
}

// Hub tracks the open connections of every user.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub. An empty allowedOrigins accepts any origin.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// IsOnline reports whether the user has at least one open connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}

// JoinRoom registers c in the user's room.
func (h *Hub) JoinRoom(userID string, c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
	n := len(room)
	h.mu.Unlock()

	h.logger.Debug("ws client joined", "user_id", userID, "client_id", c.id, "connections", n)
}

// LeaveRoom removes c from the user's room and closes its send queue.
// Leaving twice is a no-op.
func (h *Hub) LeaveRoom(userID string, c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[userID]
	if ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
	h.mu.Unlock()

	c.closeSend()
	h.logger.Debug("ws client left", "user_id", userID, "client_id", c.id)
}

// SendToUser queues event for every connection of the user. Connections whose
// queue is full are dropped.
func (h *Hub) SendToUser(userID, event string, payload interface{}) error {
	msg := Message{Event: event, Data: payload, Time: time.Now().Unix()}

	h.mu.RLock()
	room := h.rooms[userID]
	if len(room) == 0 {
		h.mu.RUnlock()
		return ErrOffline
	}
	var slow []*Client
	delivered := 0
	for c := range room {
		if c.enqueue(msg) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("ws send buffer full, dropping client", "user_id", userID, "client_id", c.id)
		h.LeaveRoom(userID, c)
	}
	if delivered == 0 {
		return ErrOffline
	}
	return nil
}

// ServeWS upgrades the request and attaches the connection to the user's room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "user_id", userID, "err", err)
		return
	}

	c := newClient(h, userID, conn)
	h.JoinRoom(userID, c)

	go c.writePump()
	go c.readPump()
}
