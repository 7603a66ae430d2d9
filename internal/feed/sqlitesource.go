package feed

import (
	"context"
	"sync"

	"chartenginev1/internal/model"
	sqlitestore "chartenginev1/internal/store/sqlite"
)

// SQLiteSource is a paging historical loader over the sqlite candle store.
// It has no realtime side of its own; combine it with a live feed via
// Combined when the chart should also tick.
type SQLiteSource struct {
	store    *sqlitestore.Store
	pageSize int

	oldestTS int64 // unix ms of the oldest candle served so far; 0 = none yet

	mu    sync.Mutex
	sinks []func(model.Candle)
}

var _ model.DataManager = (*SQLiteSource)(nil)

// NewSQLiteSource creates the loader. pageSize defaults to 500.
func NewSQLiteSource(store *sqlitestore.Store, pageSize int) *SQLiteSource {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &SQLiteSource{store: store, pageSize: pageSize}
}

// LoadHistorical implements model.DataManager: each call returns the page
// immediately older than everything returned so far.
func (s *SQLiteSource) LoadHistorical(ctx context.Context) (model.HistoricalBatch, error) {
	if err := ctx.Err(); err != nil {
		return model.HistoricalBatch{}, err
	}
	candles, hasMore, err := s.store.ReadPage(s.oldestTS, s.pageSize)
	if err != nil {
		return model.HistoricalBatch{}, err
	}
	if len(candles) > 0 {
		s.oldestTS = candles[0].TS.UnixMilli()
	}
	return model.HistoricalBatch{Candles: candles, HasMore: hasMore}, nil
}

// OnRealtimeUpdate implements model.DataManager. The sqlite source itself
// never emits; Push feeds registered sinks (used by Combined).
func (s *SQLiteSource) OnRealtimeUpdate(fn func(model.Candle)) {
	s.mu.Lock()
	s.sinks = append(s.sinks, fn)
	s.mu.Unlock()
}

// Push hands a live candle to every registered sink.
func (s *SQLiteSource) Push(c model.Candle) {
	s.mu.Lock()
	sinks := append(([]func(model.Candle))(nil), s.sinks...)
	s.mu.Unlock()
	for _, fn := range sinks {
		fn(c)
	}
}

// Combined joins a historical loader with a separate realtime feed into one
// DataManager (e.g. sqlite history + websocket live candles).
type Combined struct {
	Historical interface {
		LoadHistorical(ctx context.Context) (model.HistoricalBatch, error)
	}
	Realtime interface {
		OnRealtimeUpdate(fn func(model.Candle))
	}
}

var _ model.DataManager = (*Combined)(nil)

// LoadHistorical implements model.DataManager.
func (c *Combined) LoadHistorical(ctx context.Context) (model.HistoricalBatch, error) {
	return c.Historical.LoadHistorical(ctx)
}

// OnRealtimeUpdate implements model.DataManager.
func (c *Combined) OnRealtimeUpdate(fn func(model.Candle)) {
	c.Realtime.OnRealtimeUpdate(fn)
}
