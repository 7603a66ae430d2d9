// Package study provides the pluggable indicator framework: a Study turns
// candle history into computed data points and a pixel-space shape batch.
// Two reusable cores cover the computation strategies — Instant (one value
// per candle, O(1) incremental) and Windowed (trailing-window recompute) —
// and concrete indicators supply small strategy specs on top of them.
// Designed for single-goroutine usage — no locks needed.
package study

import (
	"time"

	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
)

// Point is one study output tied back to its source candle. Index is the
// position in the candle array, giving O(1) pixel lookup on render.
type Point[V any] struct {
	TS    time.Time
	Index int
	Value V
}

// Mapper bundles the read-only scales a rebuild needs to turn computed
// values into pixel-space shapes.
type Mapper struct {
	Time  scale.TimeView
	Price scale.PriceView
}

// X returns the pixel center of the candle slot at domain index i.
func (m Mapper) X(i int) float64 { return m.Time.ScaledValueFromIndex(float64(i)) }

// Study is the common capability of every indicator. Lifecycle methods
// receive the full candle snapshot after the store change; each returns how
// the study's output extends its pane's domain (zero value = no change).
type Study interface {
	// Name identifies the study in logs and sub-pane routing.
	Name() string

	// UpdateLastCandle reacts to the last candle being replaced in place.
	UpdateLastCandle(candles []model.Candle) model.DomainUpdate

	// AppendNewCandle reacts to one candle appended at the end.
	AppendNewCandle(candles []model.Candle) model.DomainUpdate

	// PrependHistoricalCandles reacts to prepended older candles.
	PrependHistoricalCandles(candles []model.Candle, prepended int) model.DomainUpdate

	// ResetCandles reacts to the dataset being replaced wholesale.
	ResetCandles(candles []model.Candle) model.DomainUpdate

	// RenderTo rebuilds the shape batch if anything changed since the last
	// frame and hands it to the compositor. Zero allocation when the
	// render key is unchanged.
	RenderTo(comp model.Compositor)

	// MarkDirty forces a batch rebuild on the next RenderTo.
	MarkDirty()

	// OwnScale returns the study's private price scale, or nil when it
	// shares its pane's scale. Sub-pane primaries must own one.
	OwnScale() *scale.Numeric

	// UpdateScaleBounds forwards the pane's pixel bounds to the private
	// scale. No-op for studies sharing a pane scale.
	UpdateScaleBounds(bounds model.Rect)
}

// renderKey is the epoch-based replacement for string render hashes: render
// caches compare these small integers instead of formatting state.
type renderKey struct {
	dataLen      int
	timeVersion  uint64
	priceVersion uint64
}

func makeKey(dataLen int, m Mapper) renderKey {
	return renderKey{
		dataLen:      dataLen,
		timeVersion:  m.Time.Version(),
		priceVersion: m.Price.Version(),
	}
}

// extent tracks the running min/max a study's values contribute to its
// pane's Y domain.
type extent struct {
	has      bool
	min, max float64
}

func (e *extent) reset() { *e = extent{} }

func (e *extent) expand(lo, hi float64) {
	if !e.has {
		e.has, e.min, e.max = true, lo, hi
		return
	}
	if lo < e.min {
		e.min = lo
	}
	if hi > e.max {
		e.max = hi
	}
}

// onBoundary reports whether a replaced value's old extent sat on the
// current min or max — in that case the cheap in-place update would leave
// stale extremes and a full recompute is required.
func (e *extent) onBoundary(lo, hi float64) bool {
	return e.has && (lo <= e.min || hi >= e.max)
}

// domainUpdate builds the DomainUpdate a study reports after a change.
func domainUpdate[V any](pts []Point[V], e extent) model.DomainUpdate {
	var du model.DomainUpdate
	if len(pts) > 0 {
		du.HasX = true
		du.XMin = float64(pts[0].TS.UnixMilli())
		du.XMax = float64(pts[len(pts)-1].TS.UnixMilli())
	}
	if e.has {
		du.HasY = true
		du.YMin = e.min
		du.YMax = e.max
	}
	return du
}

// visibleSlice returns the sub-slice of pts whose candle indices fall inside
// the visible window widened by a ±2 candle buffer, so shapes straddling the
// pane edge still draw.
func visibleSlice[V any](pts []Point[V], tv scale.TimeView) []Point[V] {
	if len(pts) == 0 {
		return nil
	}
	start, end := tv.VisibleIndices()
	lo := int(start) - 2
	hi := int(end) + 2
	base := pts[0].Index
	i := lo - base
	if i < 0 {
		i = 0
	}
	j := hi - base + 1
	if j > len(pts) {
		j = len(pts)
	}
	if i >= j {
		return nil
	}
	return pts[i:j]
}
