// Package feed provides model.DataManager implementations: a deterministic
// random-walk simulator, a paging SQLite-backed historical source, a
// websocket candle stream and a Redis Pub/Sub subscriber. Historical
// loading pages backwards from the newest data; realtime sinks are passive
// callbacks whose lifecycle the host controls.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"chartenginev1/internal/model"
)

// SimulatorConfig configures the random-walk candle simulator.
type SimulatorConfig struct {
	// StartPrice seeds the walk. Default 100.
	StartPrice float64
	// Interval is the candle bucket size. Default 1m.
	Interval time.Duration
	// HistoryTotal is how many historical candles exist. Default 1000.
	HistoryTotal int
	// PageSize is how many candles one LoadHistorical returns. Default 250.
	PageSize int
	// Seed makes the walk reproducible.
	Seed int64
}

func (c *SimulatorConfig) defaults() {
	if c.StartPrice == 0 {
		c.StartPrice = 100
	}
	if c.Interval == 0 {
		c.Interval = time.Minute
	}
	if c.HistoryTotal == 0 {
		c.HistoryTotal = 1000
	}
	if c.PageSize == 0 {
		c.PageSize = 250
	}
}

// Simulator is an in-process DataManager: it fabricates a random-walk
// history and, once started, ticks the forming candle forward in real time.
type Simulator struct {
	cfg     SimulatorConfig
	history []model.Candle // full fabricated history, ascending
	served  int            // candles already handed out (from the newest end)

	mu      sync.Mutex
	sinks   []func(model.Candle)
	forming model.Candle
	hasLive bool
	rng     *rand.Rand
}

var _ model.DataManager = (*Simulator)(nil)

// NewSimulator fabricates the full history up front so paging is stable.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	cfg.defaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	history := make([]model.Candle, cfg.HistoryTotal)
	price := cfg.StartPrice
	start := time.Now().UTC().Truncate(cfg.Interval).Add(-time.Duration(cfg.HistoryTotal) * cfg.Interval)
	for i := range history {
		history[i] = nextCandle(rng, start.Add(time.Duration(i)*cfg.Interval), price)
		price = history[i].Close
	}
	return &Simulator{cfg: cfg, history: history, rng: rng}
}

// nextCandle advances the walk by one bucket.
func nextCandle(rng *rand.Rand, ts time.Time, prev float64) model.Candle {
	open := prev
	drift := prev * 0.002 * (rng.Float64()*2 - 1)
	close := open + drift
	high := maxf(open, close) + prev*0.001*rng.Float64()
	low := minf(open, close) - prev*0.001*rng.Float64()
	return model.Candle{
		TS:     ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 100 + rng.Float64()*900,
	}
}

// LoadHistorical implements model.DataManager: pages backwards from the
// newest fabricated candle.
func (s *Simulator) LoadHistorical(context.Context) (model.HistoricalBatch, error) {
	remaining := len(s.history) - s.served
	n := s.cfg.PageSize
	if n > remaining {
		n = remaining
	}
	if n <= 0 {
		return model.HistoricalBatch{}, nil
	}
	end := len(s.history) - s.served
	page := s.history[end-n : end]
	s.served += n
	return model.HistoricalBatch{
		Candles: append([]model.Candle(nil), page...),
		HasMore: s.served < len(s.history),
	}, nil
}

// OnRealtimeUpdate implements model.DataManager.
func (s *Simulator) OnRealtimeUpdate(fn func(model.Candle)) {
	s.mu.Lock()
	s.sinks = append(s.sinks, fn)
	s.mu.Unlock()
}

// Run ticks the forming candle several times per bucket and rolls over to
// a fresh candle at each bucket boundary. Blocks until ctx is done.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.step(now.UTC())
		}
	}
}

func (s *Simulator) step(now time.Time) {
	s.mu.Lock()
	bucket := now.Truncate(s.cfg.Interval)
	last := s.cfg.StartPrice
	if n := len(s.history); n > 0 {
		last = s.history[n-1].Close
	}
	if !s.hasLive || !s.forming.TS.Equal(bucket) {
		prev := last
		if s.hasLive {
			prev = s.forming.Close
		}
		s.forming = nextCandle(s.rng, bucket, prev)
		s.hasLive = true
	} else {
		// Walk the forming candle's close and stretch its extremes.
		c := &s.forming
		c.Close += c.Close * 0.0005 * (s.rng.Float64()*2 - 1)
		if c.Close > c.High {
			c.High = c.Close
		}
		if c.Close < c.Low {
			c.Low = c.Close
		}
		c.Volume += s.rng.Float64() * 50
	}
	out := s.forming
	sinks := append(([]func(model.Candle))(nil), s.sinks...)
	s.mu.Unlock()

	for _, fn := range sinks {
		fn(out)
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
