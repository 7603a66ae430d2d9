// cmd/candlesim — Demo WebSocket candle server.
// Broadcasts simulated OHLC candles for running chartd with DATA_SOURCE=ws
// and no real market connection.
//
// Candle JSON shape is identical to model.Candle:
//
//	{"ts":"2026-08-23T10:15:00Z","open":101.2,"high":101.9,"low":100.8,"close":101.5,"volume":420}
//
// Config (env vars):
//
//	CANDLE_SERVER_ADDR    — listen address            (default: ":9001")
//	CANDLE_INTERVAL_S     — candle bucket seconds     (default: "60")
//	CANDLE_TICK_MS        — broadcast interval ms     (default: "500")
//	CANDLE_START_PRICE    — starting price            (default: "100")
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"chartenginev1/internal/feed"
	"chartenginev1/internal/model"

	"github.com/gorilla/websocket"
)

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop candle
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[candlesim] upgrade error: %v", err)
			return
		}
		log.Printf("[candlesim] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[candlesim] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends candle JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[candlesim] starting demo candle server...")

	addr := envOrDefault("CANDLE_SERVER_ADDR", ":9001")
	intervalS := envIntOrDefault("CANDLE_INTERVAL_S", 60)
	tickMs := envIntOrDefault("CANDLE_TICK_MS", 500)
	startPrice := envFloatOrDefault("CANDLE_START_PRICE", 100)

	// The simulator already knows how to walk a forming candle; here it only
	// generates, the websocket hub does the fan-out.
	sim := feed.NewSimulator(feed.SimulatorConfig{
		StartPrice:   startPrice,
		Interval:     time.Duration(intervalS) * time.Second,
		HistoryTotal: 1, // history is not served over the wire
		Seed:         time.Now().UnixNano(),
	})

	h := newHub()
	sim.OnRealtimeUpdate(func(c model.Candle) {
		h.broadcast(c.JSON())
	})
	go sim.Run(context.Background(), time.Duration(tickMs)*time.Millisecond)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"candlesim"}`)
	})

	log.Printf("[candlesim] listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	log.Printf("[candlesim] candle interval: %ds, tick: %dms", intervalS, tickMs)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[candlesim] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
