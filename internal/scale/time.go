package scale

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrEmptyDomain is returned by OrdinalTime.Invert when the scale has no
// domain: there is no valid candle index for any pixel.
var ErrEmptyDomain = errors.New("scale: invert on empty time domain")

// OrdinalTime maps timestamps to pixel X coordinates by candle index, not
// elapsed time, so closed-session gaps take no horizontal space. The visible
// window [startIdx, endIdx] is fractional to allow continuous zoom/pan
// without recreating the scale.
type OrdinalTime struct {
	domain           []time.Time // full candle timestamps, ascending
	startIdx, endIdx float64     // fractional visible window, inclusive
	rangeMin         float64
	rangeMax         float64
	step             float64 // pixels per candle slot
	version          uint64
}

// NewOrdinalTime creates an empty ordinal time scale.
func NewOrdinalTime() *OrdinalTime {
	return &OrdinalTime{}
}

// UpdateDomain replaces the full timestamp array. The visible window is left
// untouched; callers clamp it afterwards if needed.
func (s *OrdinalTime) UpdateDomain(ts []time.Time) {
	s.domain = ts
	s.recomputeStep()
	s.version++
}

// UpdateVisibleIndices sets the fractional visible window and recomputes the
// per-candle pixel step.
func (s *OrdinalTime) UpdateVisibleIndices(start, end float64) {
	s.startIdx, s.endIdx = start, end
	s.recomputeStep()
	s.version++
}

// UpdateRange sets the pixel range and recomputes the per-candle pixel step.
func (s *OrdinalTime) UpdateRange(min, max float64) {
	s.rangeMin, s.rangeMax = min, max
	s.recomputeStep()
	s.version++
}

func (s *OrdinalTime) recomputeStep() {
	visible := s.endIdx - s.startIdx + 1
	if visible <= 0 {
		s.step = 0
		return
	}
	s.step = (s.rangeMax - s.rangeMin) / visible
}

// DomainLen returns the number of candles in the full domain.
func (s *OrdinalTime) DomainLen() int { return len(s.domain) }

// VisibleIndices returns the current fractional visible window.
func (s *OrdinalTime) VisibleIndices() (start, end float64) {
	return s.startIdx, s.endIdx
}

// Range returns the pixel range bounds.
func (s *OrdinalTime) Range() (min, max float64) { return s.rangeMin, s.rangeMax }

// Step returns the pixel width of one candle slot (the box width).
func (s *OrdinalTime) Step() float64 { return s.step }

// Version returns the mutation epoch.
func (s *OrdinalTime) Version() uint64 { return s.version }

// TimestampAt returns the timestamp at a domain index.
func (s *OrdinalTime) TimestampAt(i int) (time.Time, bool) {
	if i < 0 || i >= len(s.domain) {
		return time.Time{}, false
	}
	return s.domain[i], true
}

// ScaledValueFromIndex maps a domain index straight to a pixel X. This is
// the O(1) fast path every render loop uses — no timestamp search.
func (s *OrdinalTime) ScaledValueFromIndex(i float64) float64 {
	return s.rangeMin + s.step/2 + (i-s.startIdx)*s.step
}

// Scale maps a timestamp to a pixel X. The search is a binary search over a
// ±2-candle buffer around the visible window, not the full domain: render
// paths only ask about visible (or nearly visible) timestamps, so the
// already-narrowed window keeps this O(log v). Returns ok=false when the
// timestamp is not inside the buffered window.
func (s *OrdinalTime) Scale(ts time.Time) (float64, bool) {
	if len(s.domain) == 0 {
		return 0, false
	}
	lo := int(math.Floor(s.startIdx)) - 2
	if lo < 0 {
		lo = 0
	}
	hi := int(math.Ceil(s.endIdx)) + 3 // exclusive
	if hi > len(s.domain) {
		hi = len(s.domain)
	}
	if lo >= hi {
		return 0, false
	}
	window := s.domain[lo:hi]
	i := sort.Search(len(window), func(i int) bool {
		return !window[i].Before(ts)
	})
	if i == len(window) || !window[i].Equal(ts) {
		return 0, false
	}
	return s.ScaledValueFromIndex(float64(lo + i)), true
}

// Invert maps a pixel X back to the nearest domain index, clamped to
// [0, n-1]. Returns ErrEmptyDomain when the scale holds no candles.
func (s *OrdinalTime) Invert(px float64) (int, error) {
	n := len(s.domain)
	if n == 0 {
		return 0, ErrEmptyDomain
	}
	if s.step == 0 || math.IsNaN(s.step) || math.IsInf(s.step, 0) {
		return 0, nil
	}
	// Algebraic inversion of ScaledValueFromIndex to a fractional index.
	idx := (px-s.rangeMin-s.step/2)/s.step + s.startIdx
	i := int(math.Round(idx))
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i, nil
}
