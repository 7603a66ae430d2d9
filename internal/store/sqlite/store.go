// Package sqlite persists OHLC candles so the chart has history across
// runs. Single-writer, WAL mode, batched transactions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"chartenginev1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// Config configures the SQLite store.
type Config struct {
	// DBPath is the database file, e.g. "data/candles.db".
	DBPath string
	// Symbol namespaces the candles (one chart per symbol).
	Symbol string
}

// Store reads and writes candles for one symbol.
type Store struct {
	db     *sql.DB
	symbol string

	// OnCommit is an optional hook observing batch commit durations.
	OnCommit func(d time.Duration, n int)
}

// Open creates the store, initializing the database with WAL mode and the
// schema.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db, symbol: cfg.Symbol}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL, -- unix milliseconds, bucket start
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume REAL    NOT NULL,
			oi     REAL,
			PRIMARY KEY (symbol, ts)
		);
	`)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// ReadPage returns up to limit candles strictly older than beforeTS
// (unix ms; 0 means newest), in ascending order, plus whether older candles
// remain. This is the paging shape the chart's historical loader needs.
func (s *Store) ReadPage(beforeTS int64, limit int) ([]model.Candle, bool, error) {
	q := `SELECT ts, open, high, low, close, volume, COALESCE(oi, 0)
	      FROM candles WHERE symbol = ?`
	args := []any{s.symbol}
	if beforeTS > 0 {
		q += ` AND ts < ?`
		args = append(args, beforeTS)
	}
	// Fetch one extra row to learn whether more history exists.
	q += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite read page: %w", err)
	}
	defer rows.Close()

	var desc []model.Candle
	for rows.Next() {
		var ts int64
		var c model.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.OpenInterest); err != nil {
			return nil, false, fmt.Errorf("sqlite scan: %w", err)
		}
		c.TS = time.UnixMilli(ts).UTC()
		desc = append(desc, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(desc) > limit
	if hasMore {
		desc = desc[:limit]
	}
	// Reverse into ascending order.
	out := make([]model.Candle, len(desc))
	for i, c := range desc {
		out[len(desc)-1-i] = c
	}
	return out, hasMore, nil
}

// WriteBatch upserts candles in a single transaction.
func (s *Store) WriteBatch(candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	start := time.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, ts, open, high, low, close, volume, oi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(s.symbol, c.TS.UnixMilli(), c.Open, c.High, c.Low, c.Close, c.Volume, c.OpenInterest); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if s.OnCommit != nil {
		s.OnCommit(time.Since(start), len(candles))
	}
	return nil
}

// RunWriter reads candles from candleCh and persists them in batched
// transactions: every batchSize candles or every flushDelay, whichever
// comes first. Blocks until ctx is cancelled or candleCh is closed.
func (s *Store) RunWriter(ctx context.Context, candleCh <-chan model.Candle) {
	batch := make([]model.Candle, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.WriteBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case c, ok := <-candleCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, c)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}
		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}
