package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"chartenginev1/internal/model"

	"github.com/gorilla/websocket"
)

// WSFeedConfig configures the websocket candle feed.
type WSFeedConfig struct {
	// URL of the candle websocket server, e.g. "ws://localhost:9001/ws".
	URL string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *WSFeedConfig) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// WSFeed streams JSON candles from a websocket server into registered
// sinks, reconnecting with exponential backoff. The wire format is
// model.Candle's JSON shape.
type WSFeed struct {
	cfg WSFeedConfig

	// OnReconnect is an optional hook called on each reconnection.
	OnReconnect func()

	mu    sync.Mutex
	sinks []func(model.Candle)
}

// NewWSFeed creates the feed. Returns an error for an unparseable URL.
func NewWSFeed(cfg WSFeedConfig) (*WSFeed, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	return &WSFeed{cfg: cfg}, nil
}

// OnRealtimeUpdate registers a candle sink.
func (f *WSFeed) OnRealtimeUpdate(fn func(model.Candle)) {
	f.mu.Lock()
	f.sinks = append(f.sinks, fn)
	f.mu.Unlock()
}

func (f *WSFeed) emit(c model.Candle) {
	f.mu.Lock()
	sinks := append(([]func(model.Candle))(nil), f.sinks...)
	f.mu.Unlock()
	for _, fn := range sinks {
		fn(c)
	}
}

// Start connects and streams candles into the sinks. Blocks until ctx is
// cancelled. Reconnects automatically on disconnect.
func (f *WSFeed) Start(ctx context.Context) error {
	delay := f.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := f.runOnce(ctx)
		if err == nil {
			// Context cancelled cleanly.
			return nil
		}

		log.Printf("[wsfeed] disconnected (%v), reconnecting in %s...", err, delay)
		if f.OnReconnect != nil {
			f.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > f.cfg.MaxReconnectDelay {
			delay = f.cfg.MaxReconnectDelay
		}
	}
}

// runOnce dials once and pumps messages until the connection drops or the
// context ends. A nil return means clean shutdown.
func (f *WSFeed) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[wsfeed] connected to %s", f.cfg.URL)

	// Close the connection when the context ends to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var c model.Candle
		if err := json.Unmarshal(msg, &c); err != nil {
			log.Printf("[wsfeed] bad candle message: %v", err)
			continue
		}
		f.emit(c)
	}
}
