// Package notify fans small change events out to connected browsers so they
// know to re-poll. The payload carries no state, only the event name.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names broadcast after mutations.
const (
	EventSessionStarted   = "session_started"
	EventSessionRestarted = "session_restarted"
	EventOTPEnabled       = "otp_enabled"
	EventAttendanceMarked = "attendance_marked"
	EventLecturerVerified = "lecturer_verified"
	EventRosterChanged    = "roster_changed"
	EventSettingsChanged  = "settings_changed"
)

type message struct {
	Event string `json:"event"`
	At    int64  `json:"at"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	// Hotspot LAN, clients connect from whatever origin the phone hands out.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and broadcasts to all of them. Clients that
// cannot keep up are dropped rather than buffered without bound.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

// Serve upgrades the request and keeps the connection registered until the
// peer goes away. Inbound frames are read and discarded; the channel is
// one-way, server to client.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	send := make(chan []byte, 8)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go func() {
		for payload := range send {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(conn)
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string) {
	payload, err := json.Marshal(message{Event: event, At: time.Now().Unix()})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			// Slow client; evict instead of blocking the broadcaster.
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

// Count reports connected clients, for the health endpoint.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}
