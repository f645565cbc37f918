package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ChangeNotice is pushed to watchers whenever the board changes.
type ChangeNotice struct {
	Kind     string `json:"kind"` // "change" or "snapshot"
	ChangeID string `json:"change_id,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Hub fans change notices out to connected websocket watchers. Slow watchers
// are dropped rather than allowed to block the broadcast path.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]chan ChangeNotice
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]chan ChangeNotice)}
}

func (h *Hub) add(conn *websocket.Conn) chan ChangeNotice {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan ChangeNotice, 32)
	h.conns[conn] = ch
	return ch
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(ch)
	}
}

// Broadcast queues a notice for every watcher.
func (h *Hub) Broadcast(n ChangeNotice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.conns {
		select {
		case ch <- n:
		default:
			// Watcher is not keeping up; drop it.
			delete(h.conns, conn)
			close(ch)
			conn.Close()
		}
	}
}

// Close disconnects all watchers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, ch := range h.conns {
		delete(h.conns, conn)
		close(ch)
		conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch upgrades the connection and streams change notices until the
// client goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws upgrade", "err", err)
		return
	}
	ch := s.hub.add(conn)
	if ch == nil {
		conn.Close()
		return
	}
	defer s.hub.remove(conn)

	// Reader goroutine: only to detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				slog.Debug("ws write", "err", err)
				return
			}
		case <-done:
			return
		}
	}
}
