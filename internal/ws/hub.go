package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/color"
)

// Frame is one composed color pushed to preview clients.
type Frame struct {
	T   int64     `json:"t"`
	Seq uint64    `json:"seq"`
	RGB color.RGB `json:"rgb"`
}

// Hub fans frames out to every connected websocket client.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	seq     uint64
	last    []byte

	wmu sync.Mutex // one writer at a time
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log, clients: map[*websocket.Conn]bool{}}
}

// HandleFrames upgrades the request and streams frames until the client goes
// away. New clients get the latest frame right away.
func (h *Hub) HandleFrames(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade")
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	last := h.last
	h.mu.Unlock()
	if last != nil {
		h.write(conn, last)
	}

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends c to every client.
func (h *Hub) Broadcast(c color.RGB) {
	h.mu.Lock()
	h.seq++
	b, err := json.Marshal(Frame{T: time.Now().UnixNano(), Seq: h.seq, RGB: c})
	if err != nil {
		h.mu.Unlock()
		h.log.Error().Err(err).Msg("encode frame")
		return
	}
	h.last = b
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		h.write(conn, b)
	}
}

func (h *Hub) write(conn *websocket.Conn, b []byte) {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		h.log.Debug().Err(err).Msg("write frame")
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
