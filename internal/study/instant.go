package study

import (
	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// InstantSpec is the strategy for a one-value-per-candle study.
type InstantSpec[V any] struct {
	// Name identifies the study.
	Name string

	// Compute derives the study value for one candle.
	Compute func(c model.Candle) V

	// Extent returns the Y-domain contribution of one value. nil means the
	// study contributes nothing to its pane's domain (e.g. last-price line
	// is handled separately and never uses an Instant core).
	Extent func(v V) (lo, hi float64)

	// Rebuild turns the visible points into pixel-space shapes.
	Rebuild func(pts []Point[V], m Mapper) []shape.Shape
}

// Instant is the reusable core for instant studies. Update and append are
// O(1); the Y extent updates incrementally and only falls back to a full
// O(n) recompute when a replaced value sat on an extreme.
type Instant[V any] struct {
	spec   InstantSpec[V]
	points []Point[V]
	ext    extent
	batch  *shape.Batch
	mapper Mapper
	own    *scale.Numeric

	lastKey  renderKey
	rendered bool
	dirty    bool
}

// NewInstant creates an instant study. own may be nil for studies sharing
// their pane's price scale; when set it becomes the study's private scale
// and the Mapper maps prices through it.
func NewInstant[V any](spec InstantSpec[V], tv scale.TimeView, pv scale.PriceView, own *scale.Numeric) *Instant[V] {
	if own != nil {
		pv = own
	}
	return &Instant[V]{
		spec:   spec,
		batch:  shape.NewBatch(0),
		mapper: Mapper{Time: tv, Price: pv},
		own:    own,
	}
}

// Name implements Study.
func (st *Instant[V]) Name() string { return st.spec.Name }

// Points returns the computed data points (read-only).
func (st *Instant[V]) Points() []Point[V] { return st.points }

// Batch returns the study's shape batch (read-only).
func (st *Instant[V]) Batch() *shape.Batch { return st.batch }

// OwnScale implements Study.
func (st *Instant[V]) OwnScale() *scale.Numeric { return st.own }

// UpdateScaleBounds implements Study. Bounds map the private scale's pixel
// range; inverted scales put the domain minimum at the pane bottom.
func (st *Instant[V]) UpdateScaleBounds(b model.Rect) {
	if st.own != nil {
		st.own.UpdateRange(b.Y, b.Bottom())
	}
}

// MarkDirty implements Study.
func (st *Instant[V]) MarkDirty() { st.dirty = true }

// UpdateLastCandle implements Study: the last candle was replaced in place.
func (st *Instant[V]) UpdateLastCandle(candles []model.Candle) model.DomainUpdate {
	n := len(candles)
	if n == 0 {
		return model.DomainUpdate{}
	}
	if len(st.points) != n {
		// Out of step with the candle array (first tick before any
		// append, or a missed event): rebuild from scratch.
		return st.ResetCandles(candles)
	}

	last := candles[n-1]
	oldV := st.points[n-1].Value
	newV := st.spec.Compute(last)
	st.points[n-1] = Point[V]{TS: last.TS, Index: n - 1, Value: newV}

	if st.spec.Extent != nil {
		oldLo, oldHi := st.spec.Extent(oldV)
		newLo, newHi := st.spec.Extent(newV)
		if st.ext.onBoundary(oldLo, oldHi) && (newLo > st.ext.min || newHi < st.ext.max) {
			// The replaced value held an extreme and the new one pulls
			// inward — a cheap update would leave stale extremes.
			st.recomputeExtent()
		} else {
			st.ext.expand(newLo, newHi)
		}
	}
	return domainUpdate(st.points, st.ext)
}

// AppendNewCandle implements Study: one candle appended at the end. O(1).
func (st *Instant[V]) AppendNewCandle(candles []model.Candle) model.DomainUpdate {
	n := len(candles)
	if n == 0 {
		return model.DomainUpdate{}
	}
	if len(st.points) != n-1 {
		return st.ResetCandles(candles)
	}
	last := candles[n-1]
	v := st.spec.Compute(last)
	st.points = append(st.points, Point[V]{TS: last.TS, Index: n - 1, Value: v})
	if st.spec.Extent != nil {
		lo, hi := st.spec.Extent(v)
		st.ext.expand(lo, hi)
	}
	return domainUpdate(st.points, st.ext)
}

// PrependHistoricalCandles implements Study. Candle indices shift, so the
// point array is rebuilt from the full dataset.
func (st *Instant[V]) PrependHistoricalCandles(candles []model.Candle, prepended int) model.DomainUpdate {
	return st.ResetCandles(candles)
}

// ResetCandles implements Study: full recompute over the whole series.
func (st *Instant[V]) ResetCandles(candles []model.Candle) model.DomainUpdate {
	st.points = st.points[:0]
	st.ext.reset()
	for i, c := range candles {
		v := st.spec.Compute(c)
		st.points = append(st.points, Point[V]{TS: c.TS, Index: i, Value: v})
		if st.spec.Extent != nil {
			lo, hi := st.spec.Extent(v)
			st.ext.expand(lo, hi)
		}
	}
	return domainUpdate(st.points, st.ext)
}

func (st *Instant[V]) recomputeExtent() {
	st.ext.reset()
	for _, p := range st.points {
		lo, hi := st.spec.Extent(p.Value)
		st.ext.expand(lo, hi)
	}
}

// RenderTo implements Study.
func (st *Instant[V]) RenderTo(comp model.Compositor) {
	key := makeKey(len(st.points), st.mapper)
	if !st.rendered || st.dirty || key != st.lastKey {
		st.batch.Reset(st.spec.Rebuild(visibleSlice(st.points, st.mapper.Time), st.mapper))
		st.lastKey = key
		st.rendered = true
		st.dirty = false
	}
	comp.Render(st.batch)
}
