// Package series provides the engine's candle storage: an ordered,
// deduplicated time series with change classification. Designed for
// single-goroutine usage — no locks needed.
package series

import (
	"sort"

	"chartenginev1/internal/model"
)

// Store holds candles in strictly ascending timestamp order with unique
// timestamps. Writes are classified into append/update/prepend/reset and a
// single change callback is notified after every mutation.
type Store struct {
	candles  []model.Candle
	onChange func(model.Change)
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetOnChange installs the single change-notification callback. Consumers
// read current state via All() inside the callback.
func (s *Store) SetOnChange(fn func(model.Change)) {
	s.onChange = fn
}

// All returns the live candle slice, oldest first. Callers must treat it as
// read-only within a change cycle — there is no defensive copy.
func (s *Store) All() []model.Candle { return s.candles }

// Len returns the number of candles.
func (s *Store) Len() int { return len(s.candles) }

// Last returns the most recent candle, if any.
func (s *Store) Last() (model.Candle, bool) {
	if len(s.candles) == 0 {
		return model.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Add writes one candle. A timestamp equal to the current last candle
// replaces it in place (live tick, ChangeUpdate); any other timestamp is
// inserted in sorted position (ChangeAppend). A timestamp matching an older
// existing candle replaces that candle to preserve uniqueness.
func (s *Store) Add(c model.Candle) {
	n := len(s.candles)
	switch {
	case n == 0:
		s.candles = append(s.candles, c)
		s.notify(model.Change{Kind: model.ChangeAppend})
	case c.TS.Equal(s.candles[n-1].TS):
		s.candles[n-1] = c
		s.notify(model.Change{Kind: model.ChangeUpdate})
	case c.TS.After(s.candles[n-1].TS):
		s.candles = append(s.candles, c)
		s.notify(model.Change{Kind: model.ChangeAppend})
	default:
		// Historical insert. Find the sorted position; replace on an
		// exact timestamp match to keep timestamps unique.
		i := sort.Search(n, func(i int) bool {
			return !s.candles[i].TS.Before(c.TS)
		})
		if i < n && s.candles[i].TS.Equal(c.TS) {
			s.candles[i] = c
			s.notify(model.Change{Kind: model.ChangeUpdate})
			return
		}
		s.candles = append(s.candles, model.Candle{})
		copy(s.candles[i+1:], s.candles[i:])
		s.candles[i] = c
		s.notify(model.Change{Kind: model.ChangeAppend})
	}
}

// Prepend bulk-inserts older candles. Duplicated timestamps keep the
// incoming write. Notifies ChangePrepend with the number of candles that
// actually landed before the previous first candle, so consumers can shift
// their visible window by exactly that much.
func (s *Store) Prepend(candles []model.Candle) {
	if len(candles) == 0 {
		return
	}
	var prevFirst model.Candle
	hadAny := len(s.candles) > 0
	if hadAny {
		prevFirst = s.candles[0]
	}

	s.candles = mergeSorted(s.candles, candles)

	prepended := len(s.candles)
	if hadAny {
		prepended = sort.Search(len(s.candles), func(i int) bool {
			return !s.candles[i].TS.Before(prevFirst.TS)
		})
	}
	s.notify(model.Change{Kind: model.ChangePrepend, Prepended: prepended})
}

// Reset replaces the whole dataset. Input order does not matter; duplicate
// timestamps keep the last occurrence.
func (s *Store) Reset(candles []model.Candle) {
	s.candles = mergeSorted(nil, candles)
	s.notify(model.Change{Kind: model.ChangeReset})
}

func (s *Store) notify(ch model.Change) {
	if s.onChange != nil {
		s.onChange(ch)
	}
}

// mergeSorted merges incoming candles into an already-sorted base slice,
// returning a sorted, timestamp-unique result. Later writes win on conflict.
func mergeSorted(base, incoming []model.Candle) []model.Candle {
	merged := make([]model.Candle, 0, len(base)+len(incoming))
	merged = append(merged, base...)
	merged = append(merged, incoming...)

	// Stable keeps the later write in front after the dedupe scan below
	// picks the last entry per timestamp.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TS.Before(merged[j].TS)
	})

	out := merged[:0]
	for i := 0; i < len(merged); i++ {
		// Skip ahead to the last candle sharing this timestamp.
		j := i
		for j+1 < len(merged) && merged[j+1].TS.Equal(merged[i].TS) {
			j++
		}
		out = append(out, merged[j])
		i = j
	}
	return out
}
