package series

import (
	"testing"
	"time"

	"chartenginev1/internal/model"
)

var t0 = time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)

// mk builds a candle at t0 + i minutes with Close = close.
func mk(i int, close float64) model.Candle {
	return model.Candle{
		TS:    t0.Add(time.Duration(i) * time.Minute),
		Open:  close,
		High:  close,
		Low:   close,
		Close: close,
	}
}

func assertOrdered(t *testing.T, s *Store) {
	t.Helper()
	all := s.All()
	for i := 1; i < len(all); i++ {
		if !all[i-1].TS.Before(all[i].TS) {
			t.Fatalf("ordering violated at %d: %v >= %v", i, all[i-1].TS, all[i].TS)
		}
	}
}

func TestStore_AddClassification(t *testing.T) {
	s := New()
	var changes []model.ChangeKind
	s.SetOnChange(func(ch model.Change) { changes = append(changes, ch.Kind) })

	s.Add(mk(0, 100)) // empty → append
	s.Add(mk(1, 101)) // after last → append
	s.Add(mk(1, 102)) // same ts as last → update
	s.Add(mk(3, 103)) // append
	s.Add(mk(2, 99))  // mid insert → append

	want := []model.ChangeKind{
		model.ChangeAppend, model.ChangeAppend, model.ChangeUpdate,
		model.ChangeAppend, model.ChangeAppend,
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(changes))
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d: expected %v, got %v", i, want[i], changes[i])
		}
	}

	if s.Len() != 4 {
		t.Fatalf("expected 4 candles, got %d", s.Len())
	}
	assertOrdered(t, s)

	// The same-ts write replaced, not duplicated.
	if got := s.All()[1].Close; got != 102 {
		t.Errorf("expected update to replace close: got %v, want 102", got)
	}
}

func TestStore_UpdateDoesNotGrow(t *testing.T) {
	s := New()
	s.Add(mk(0, 100))
	s.Add(mk(1, 101))

	before := s.Len()
	for i := 0; i < 10; i++ {
		s.Add(mk(1, 101+float64(i)))
	}
	if s.Len() != before {
		t.Fatalf("updates must not grow the store: %d → %d", before, s.Len())
	}
	last, _ := s.Last()
	if last.Close != 110 {
		t.Errorf("expected last close 110, got %v", last.Close)
	}
}

func TestStore_MidUpdateReplacesInPlace(t *testing.T) {
	s := New()
	s.Add(mk(0, 100))
	s.Add(mk(1, 101))
	s.Add(mk(2, 102))

	var got model.Change
	s.SetOnChange(func(ch model.Change) { got = ch })
	s.Add(mk(1, 555)) // exact match on an older candle

	if got.Kind != model.ChangeUpdate {
		t.Fatalf("expected update, got %v", got.Kind)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 candles, got %d", s.Len())
	}
	if s.All()[1].Close != 555 {
		t.Errorf("expected in-place replacement, got %v", s.All()[1].Close)
	}
}

func TestStore_PrependCountsActualInserts(t *testing.T) {
	s := New()
	s.Reset([]model.Candle{mk(10, 110), mk(11, 111), mk(12, 112)})

	var got model.Change
	s.SetOnChange(func(ch model.Change) { got = ch })

	// Two genuinely older candles plus one duplicate of the current first.
	s.Prepend([]model.Candle{mk(8, 108), mk(9, 109), mk(10, 999)})

	if got.Kind != model.ChangePrepend {
		t.Fatalf("expected prepend, got %v", got.Kind)
	}
	if got.Prepended != 2 {
		t.Fatalf("expected Prepended=2, got %d", got.Prepended)
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 candles, got %d", s.Len())
	}
	assertOrdered(t, s)

	// The duplicate timestamp kept the incoming write.
	if s.All()[2].Close != 999 {
		t.Errorf("expected incoming candle to win on duplicate ts, got %v", s.All()[2].Close)
	}
}

func TestStore_ResetSortsAndDedupes(t *testing.T) {
	s := New()
	var got model.Change
	s.SetOnChange(func(ch model.Change) { got = ch })

	s.Reset([]model.Candle{mk(2, 102), mk(0, 100), mk(1, 101), mk(2, 202)})

	if got.Kind != model.ChangeReset {
		t.Fatalf("expected reset, got %v", got.Kind)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 unique candles, got %d", s.Len())
	}
	assertOrdered(t, s)
	if s.All()[2].Close != 202 {
		t.Errorf("expected last duplicate to win, got %v", s.All()[2].Close)
	}
}

func TestStore_PrependIntoEmpty(t *testing.T) {
	s := New()
	var got model.Change
	s.SetOnChange(func(ch model.Change) { got = ch })

	s.Prepend([]model.Candle{mk(0, 100), mk(1, 101)})
	if got.Kind != model.ChangePrepend || got.Prepended != 2 {
		t.Fatalf("expected prepend of 2, got %+v", got)
	}
}
