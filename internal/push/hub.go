// Package push delivers server-side player edits (bans, stars, level,
// referrals) to live sessions over websocket.
package push

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Stardust/internal/model"
)

const writeWait = 5 * time.Second

type subscriber struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	playerID string
}

// WriteMessage sends a message guarded by the subscriber's mutex and write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub accepts websocket subscribers and fans deltas out to them.
// A subscriber may filter by player with ?player=<id>.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] push upgrade failed: %v", err)
		return
	}
	sub := &subscriber{conn: conn, playerID: r.URL.Query().Get("player")}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	// Subscribers never send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(sub)
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish sends the delta to every subscriber interested in its player.
func (h *Hub) Publish(d model.PlayerDelta) {
	data, err := json.Marshal(d)
	if err != nil {
		log.Printf("[ERROR] marshal delta: %v", err)
		return
	}
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		if sub.playerID == "" || sub.playerID == d.PlayerID {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[WARN] push to subscriber failed: %v", err)
			h.drop(sub)
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()
	for sub := range subs {
		sub.conn.Close()
	}
}
