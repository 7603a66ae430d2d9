package study

import (
	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// WindowedSpec is the strategy for a trailing-window study: each output
// needs the last Window candles (SMA/EMA/RSI/Bollinger).
type WindowedSpec[V any] struct {
	// Name identifies the study.
	Name string

	// Window is the number of trailing candles one value needs. For N
	// candles the study produces N-Window+1 points.
	Window int

	// Compute derives one value from a window slice (len == Window).
	// prev is the previous computed point's value (hasPrev=false for the
	// first point) — recursive indicators like EMA chain on it.
	Compute func(window []model.Candle, prev V, hasPrev bool) V

	// Extent returns the Y-domain contribution of one value.
	Extent func(v V) (lo, hi float64)

	// Rebuild turns the visible points into pixel-space shapes.
	Rebuild func(pts []Point[V], m Mapper) []shape.Shape
}

// Windowed is the reusable core for trailing-window studies. Update and
// append slice the trailing window and compute one value; prepend and reset
// force a full recompute because the window partitioning shifts.
type Windowed[V any] struct {
	spec   WindowedSpec[V]
	points []Point[V]
	ext    extent
	batch  *shape.Batch
	mapper Mapper
	own    *scale.Numeric

	lastKey  renderKey
	rendered bool
	dirty    bool
}

// NewWindowed creates a windowed study. own may be nil for overlays sharing
// the pane's price scale.
func NewWindowed[V any](spec WindowedSpec[V], tv scale.TimeView, pv scale.PriceView, own *scale.Numeric) *Windowed[V] {
	if own != nil {
		pv = own
	}
	return &Windowed[V]{
		spec:   spec,
		batch:  shape.NewBatch(0),
		mapper: Mapper{Time: tv, Price: pv},
		own:    own,
	}
}

// Name implements Study.
func (st *Windowed[V]) Name() string { return st.spec.Name }

// Points returns the computed data points (read-only).
func (st *Windowed[V]) Points() []Point[V] { return st.points }

// Batch returns the study's shape batch (read-only).
func (st *Windowed[V]) Batch() *shape.Batch { return st.batch }

// OwnScale implements Study.
func (st *Windowed[V]) OwnScale() *scale.Numeric { return st.own }

// UpdateScaleBounds implements Study.
func (st *Windowed[V]) UpdateScaleBounds(b model.Rect) {
	if st.own != nil {
		st.own.UpdateRange(b.Y, b.Bottom())
	}
}

// MarkDirty implements Study.
func (st *Windowed[V]) MarkDirty() { st.dirty = true }

// UpdateLastCandle implements Study: recompute the newest point from the
// trailing window. Insufficient data is "not yet renderable", not an error.
func (st *Windowed[V]) UpdateLastCandle(candles []model.Candle) model.DomainUpdate {
	n := len(candles)
	w := st.spec.Window
	if n < w {
		return model.DomainUpdate{}
	}
	want := n - w + 1
	if len(st.points) == want-1 {
		// The updated candle completed the first window for this point.
		return st.appendPoint(candles)
	}
	if len(st.points) != want {
		return st.ResetCandles(candles)
	}

	prev, hasPrev := st.prevValue(len(st.points) - 1)
	oldV := st.points[want-1].Value
	newV := st.spec.Compute(candles[n-w:], prev, hasPrev)
	st.points[want-1] = Point[V]{TS: candles[n-1].TS, Index: n - 1, Value: newV}

	if st.spec.Extent != nil {
		oldLo, oldHi := st.spec.Extent(oldV)
		newLo, newHi := st.spec.Extent(newV)
		if st.ext.onBoundary(oldLo, oldHi) && (newLo > st.ext.min || newHi < st.ext.max) {
			st.recomputeExtent()
		} else {
			st.ext.expand(newLo, newHi)
		}
	}
	return domainUpdate(st.points, st.ext)
}

// AppendNewCandle implements Study: one value from the trailing window.
func (st *Windowed[V]) AppendNewCandle(candles []model.Candle) model.DomainUpdate {
	n := len(candles)
	w := st.spec.Window
	if n < w {
		return model.DomainUpdate{}
	}
	if len(st.points) != n-w {
		return st.ResetCandles(candles)
	}
	return st.appendPoint(candles)
}

func (st *Windowed[V]) appendPoint(candles []model.Candle) model.DomainUpdate {
	n := len(candles)
	w := st.spec.Window
	prev, hasPrev := st.prevValue(len(st.points))
	v := st.spec.Compute(candles[n-w:], prev, hasPrev)
	st.points = append(st.points, Point[V]{TS: candles[n-1].TS, Index: n - 1, Value: v})
	if st.spec.Extent != nil {
		lo, hi := st.spec.Extent(v)
		st.ext.expand(lo, hi)
	}
	return domainUpdate(st.points, st.ext)
}

// prevValue returns the value of the point before position i.
func (st *Windowed[V]) prevValue(i int) (V, bool) {
	var zero V
	if i <= 0 || i > len(st.points) {
		return zero, false
	}
	return st.points[i-1].Value, true
}

// PrependHistoricalCandles implements Study. The window partitioning shifts,
// so everything recomputes.
func (st *Windowed[V]) PrependHistoricalCandles(candles []model.Candle, prepended int) model.DomainUpdate {
	return st.ResetCandles(candles)
}

// ResetCandles implements Study: full recompute over the whole series.
func (st *Windowed[V]) ResetCandles(candles []model.Candle) model.DomainUpdate {
	st.points = st.points[:0]
	st.ext.reset()
	w := st.spec.Window
	var prev V
	hasPrev := false
	for i := w - 1; i < len(candles); i++ {
		v := st.spec.Compute(candles[i-w+1:i+1], prev, hasPrev)
		st.points = append(st.points, Point[V]{TS: candles[i].TS, Index: i, Value: v})
		if st.spec.Extent != nil {
			lo, hi := st.spec.Extent(v)
			st.ext.expand(lo, hi)
		}
		prev, hasPrev = v, true
	}
	return domainUpdate(st.points, st.ext)
}

func (st *Windowed[V]) recomputeExtent() {
	st.ext.reset()
	for _, p := range st.points {
		lo, hi := st.spec.Extent(p.Value)
		st.ext.expand(lo, hi)
	}
}

// RenderTo implements Study.
func (st *Windowed[V]) RenderTo(comp model.Compositor) {
	key := makeKey(len(st.points), st.mapper)
	if !st.rendered || st.dirty || key != st.lastKey {
		st.batch.Reset(st.spec.Rebuild(visibleSlice(st.points, st.mapper.Time), st.mapper))
		st.lastKey = key
		st.rendered = true
		st.dirty = false
	}
	comp.Render(st.batch)
}
