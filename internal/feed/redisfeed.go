package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"chartenginev1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// RedisFeedConfig configures the Redis Pub/Sub candle subscriber.
type RedisFeedConfig struct {
	Addr     string
	Password string
	DB       int
	// Channel carries JSON-encoded candles, e.g. "pub:candle:NIFTY".
	Channel string
}

// RedisFeed subscribes to a Pub/Sub channel of JSON candles and fans them
// out to registered sinks. Use it as the realtime half of a Combined feed.
type RedisFeed struct {
	client  *goredis.Client
	channel string

	mu    sync.Mutex
	sinks []func(model.Candle)
}

// NewRedisFeed connects to Redis and verifies the connection.
func NewRedisFeed(ctx context.Context, cfg RedisFeedConfig) (*RedisFeed, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisFeed{client: client, channel: cfg.Channel}, nil
}

// OnRealtimeUpdate registers a candle sink.
func (f *RedisFeed) OnRealtimeUpdate(fn func(model.Candle)) {
	f.mu.Lock()
	f.sinks = append(f.sinks, fn)
	f.mu.Unlock()
}

// Start subscribes and routes messages until ctx is cancelled.
func (f *RedisFeed) Start(ctx context.Context) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation before consuming.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", f.channel, err)
	}
	log.Printf("[redisfeed] subscribed to %s", f.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c model.Candle
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				log.Printf("[redisfeed] bad candle payload: %v", err)
				continue
			}
			f.mu.Lock()
			sinks := append(([]func(model.Candle))(nil), f.sinks...)
			f.mu.Unlock()
			for _, fn := range sinks {
				fn(c)
			}
		}
	}
}

// Close releases the Redis client.
func (f *RedisFeed) Close() error { return f.client.Close() }
