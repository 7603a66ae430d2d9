package feed

import (
	"context"
	"testing"
	"time"

	"chartenginev1/internal/model"
)

func simConfig() SimulatorConfig {
	return SimulatorConfig{
		StartPrice:   100,
		Interval:     time.Minute,
		HistoryTotal: 10,
		PageSize:     4,
		Seed:         42,
	}
}

func TestSimulator_PagesBackwardsFromNewest(t *testing.T) {
	s := NewSimulator(simConfig())
	ctx := context.Background()

	var pages []model.HistoricalBatch
	for {
		b, err := s.LoadHistorical(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(b.Candles) == 0 {
			break
		}
		pages = append(pages, b)
	}

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages (4+4+2), got %d", len(pages))
	}
	if n := len(pages[0].Candles); n != 4 {
		t.Fatalf("first page size = %d, want 4", n)
	}
	if n := len(pages[2].Candles); n != 2 {
		t.Fatalf("last page size = %d, want 2", n)
	}
	if !pages[0].HasMore || !pages[1].HasMore || pages[2].HasMore {
		t.Fatal("HasMore must be true until the history is exhausted")
	}

	// Prepending each page in order reconstructs the ascending history:
	// page boundaries must line up with no gaps or overlaps.
	var all []model.Candle
	for i := len(pages) - 1; i >= 0; i-- {
		all = append(all, pages[i].Candles...)
	}
	if len(all) != 10 {
		t.Fatalf("reassembled %d candles, want 10", len(all))
	}
	for i := 1; i < len(all); i++ {
		if got := all[i].TS.Sub(all[i-1].TS); got != time.Minute {
			t.Fatalf("gap of %v between candles %d and %d", got, i-1, i)
		}
	}
}

func TestSimulator_WalkIsContinuousAndReproducible(t *testing.T) {
	a := NewSimulator(simConfig())
	b := NewSimulator(simConfig())

	// Open chains from the previous close.
	for i := 1; i < len(a.history); i++ {
		if a.history[i].Open != a.history[i-1].Close {
			t.Fatalf("candle %d opens at %v, previous close %v", i, a.history[i].Open, a.history[i-1].Close)
		}
	}
	// High/Low bound the body.
	for i, c := range a.history {
		if c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
			t.Fatalf("candle %d extremes do not bound the body: %+v", i, c)
		}
	}
	// Same seed, same walk.
	for i := range a.history {
		if a.history[i] != b.history[i] {
			t.Fatalf("seeded walks diverge at candle %d", i)
		}
	}
}

func TestSimulator_StepTicksThenRollsOver(t *testing.T) {
	s := NewSimulator(simConfig())

	var got []model.Candle
	s.OnRealtimeUpdate(func(c model.Candle) { got = append(got, c) })

	now := time.Date(2026, 1, 5, 9, 15, 10, 0, time.UTC)
	s.step(now)
	s.step(now.Add(5 * time.Second)) // same bucket: in-place tick
	s.step(now.Add(time.Minute))     // next bucket: rollover

	if len(got) != 3 {
		t.Fatalf("expected 3 emissions, got %d", len(got))
	}
	bucket := now.Truncate(time.Minute)
	if !got[0].TS.Equal(bucket) || !got[1].TS.Equal(bucket) {
		t.Fatal("ticks within one bucket must share its timestamp")
	}
	if got[1].Volume < got[0].Volume {
		t.Fatal("an in-place tick must not shrink volume")
	}
	if !got[2].TS.Equal(bucket.Add(time.Minute)) {
		t.Fatalf("rollover timestamp = %v, want %v", got[2].TS, bucket.Add(time.Minute))
	}
	if got[2].Open != got[1].Close {
		t.Fatal("the fresh candle must open at the previous forming close")
	}
}
