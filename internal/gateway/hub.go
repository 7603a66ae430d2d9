package gateway

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Command is a navigation or layout request from a websocket client. The
// host drains Hub.Commands on the engine goroutine and applies each one.
type Command struct {
	Type   string  `json:"type"` // zoom_in|zoom_out|pan|reset_zoom|resize|add_study
	Factor float64 `json:"factor,omitempty"`
	Offset int     `json:"offset,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Study  string  `json:"study,omitempty"` // sma|ema|bollinger|rsi|volume
	Period int     `json:"period,omitempty"`
}

// Hub fans encoded frames out to websocket clients and funnels their
// commands into a single channel. New clients immediately receive the most
// recent frame so they are not blank until the next engine flush.
type Hub struct {
	// Commands carries client requests to the engine goroutine. Commands
	// are dropped (with a log line) when the channel is full rather than
	// blocking the read pump.
	Commands chan Command

	// OnClientCount optionally observes the connected client count.
	OnClientCount func(n int)

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		Commands: make(chan Command, 64),
		clients:  make(map[*Client]bool),
	}
}

// BroadcastFrame sends an encoded frame to every client and caches it for
// late joiners. Slow clients are skipped, not waited on.
func (h *Hub) BroadcastFrame(data []byte) {
	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Frames carry no per-client data; any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the connection and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	latest := h.latest
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	if latest != nil {
		client.send <- latest
	}

	go client.writePump()
	go client.readPump()
}

// removeClient unregisters a client and closes its send channel.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)

	log.Printf("[gateway] ws client disconnected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}
