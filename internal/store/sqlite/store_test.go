package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chartenginev1/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{
		DBPath: filepath.Join(t.TempDir(), "candles.db"),
		Symbol: "NIFTY",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func minuteCandles(n int) []model.Candle {
	base := time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = model.Candle{
			TS:     base.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c + 0.5,
			Volume: float64(100 + i),
		}
	}
	return out
}

func TestStore_WriteAndPageBackwards(t *testing.T) {
	s := openTestStore(t)
	candles := minuteCandles(10)
	if err := s.WriteBatch(candles); err != nil {
		t.Fatal(err)
	}

	// First page: the 4 newest, ascending.
	page1, hasMore, err := s.ReadPage(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !hasMore {
		t.Fatal("expected more history behind the first page")
	}
	if len(page1) != 4 || !page1[0].TS.Equal(candles[6].TS) || !page1[3].TS.Equal(candles[9].TS) {
		t.Fatalf("first page = %v..%v", page1[0].TS, page1[len(page1)-1].TS)
	}

	// Second page resumes strictly before the first page's oldest candle.
	page2, hasMore, err := s.ReadPage(page1[0].TS.UnixMilli(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if !hasMore {
		t.Fatal("expected one more page")
	}
	if len(page2) != 4 || !page2[3].TS.Equal(candles[5].TS) {
		t.Fatalf("second page ends at %v, want %v", page2[3].TS, candles[5].TS)
	}

	// Final page drains the remainder.
	page3, hasMore, err := s.ReadPage(page2[0].TS.UnixMilli(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if hasMore || len(page3) != 2 {
		t.Fatalf("final page: %d candles, hasMore=%v", len(page3), hasMore)
	}
}

func TestStore_UpsertReplacesSameTimestamp(t *testing.T) {
	s := openTestStore(t)
	candles := minuteCandles(3)
	if err := s.WriteBatch(candles); err != nil {
		t.Fatal(err)
	}

	// A live tick rewrites the forming candle under the same key.
	tick := candles[2]
	tick.Close = 999
	if err := s.WriteBatch([]model.Candle{tick}); err != nil {
		t.Fatal(err)
	}

	page, hasMore, err := s.ReadPage(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if hasMore || len(page) != 3 {
		t.Fatalf("expected 3 unique candles, got %d (hasMore=%v)", len(page), hasMore)
	}
	if page[2].Close != 999 {
		t.Fatalf("upsert did not replace: close = %v", page[2].Close)
	}
}

func TestStore_EmptyPage(t *testing.T) {
	s := openTestStore(t)
	page, hasMore, err := s.ReadPage(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 0 || hasMore {
		t.Fatalf("empty store: %d candles, hasMore=%v", len(page), hasMore)
	}
}

func TestRunWriter_FlushesOnClose(t *testing.T) {
	s := openTestStore(t)

	commits := 0
	s.OnCommit = func(time.Duration, int) { commits++ }

	ch := make(chan model.Candle)
	done := make(chan struct{})
	go func() {
		s.RunWriter(context.Background(), ch)
		close(done)
	}()

	for _, c := range minuteCandles(5) {
		ch <- c
	}
	close(ch)
	<-done

	page, _, err := s.ReadPage(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 5 {
		t.Fatalf("expected 5 persisted candles, got %d", len(page))
	}
	if commits == 0 {
		t.Fatal("OnCommit never fired")
	}
}
