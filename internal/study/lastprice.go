package study

import (
	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// LastPriceLine tracks the most recent close and renders it as a horizontal
// line across the main pane. It contributes nothing to the price domain —
// the line hides when the price scrolls outside the visible domain instead
// of stretching it. Boundary equality renders (inclusive visibility).
type LastPriceLine struct {
	price float64
	has   bool

	batch  *shape.Batch
	mapper Mapper

	lastKey  renderKey
	rendered bool
	dirty    bool
}

var _ Study = (*LastPriceLine)(nil)

// NewLastPriceLine creates the last-price line on the shared scales.
func NewLastPriceLine(tv scale.TimeView, pv scale.PriceView) *LastPriceLine {
	return &LastPriceLine{
		batch:  shape.NewBatch(1),
		mapper: Mapper{Time: tv, Price: pv},
	}
}

// Name implements Study.
func (l *LastPriceLine) Name() string { return "last_price" }

// Price returns the tracked price and whether one has been seen.
func (l *LastPriceLine) Price() (float64, bool) { return l.price, l.has }

func (l *LastPriceLine) track(candles []model.Candle) model.DomainUpdate {
	if len(candles) == 0 {
		l.has = false
		return model.DomainUpdate{}
	}
	p := candles[len(candles)-1].Close
	if !l.has || p != l.price {
		l.price = p
		l.has = true
		l.dirty = true
	}
	return model.DomainUpdate{}
}

// UpdateLastCandle implements Study.
func (l *LastPriceLine) UpdateLastCandle(candles []model.Candle) model.DomainUpdate {
	return l.track(candles)
}

// AppendNewCandle implements Study.
func (l *LastPriceLine) AppendNewCandle(candles []model.Candle) model.DomainUpdate {
	return l.track(candles)
}

// PrependHistoricalCandles implements Study.
func (l *LastPriceLine) PrependHistoricalCandles(candles []model.Candle, prepended int) model.DomainUpdate {
	return l.track(candles)
}

// ResetCandles implements Study.
func (l *LastPriceLine) ResetCandles(candles []model.Candle) model.DomainUpdate {
	return l.track(candles)
}

// OwnScale implements Study.
func (l *LastPriceLine) OwnScale() *scale.Numeric { return nil }

// UpdateScaleBounds implements Study.
func (l *LastPriceLine) UpdateScaleBounds(model.Rect) {}

// MarkDirty implements Study.
func (l *LastPriceLine) MarkDirty() { l.dirty = true }

// RenderTo implements Study.
func (l *LastPriceLine) RenderTo(comp model.Compositor) {
	key := makeKey(0, l.mapper)
	if !l.rendered || l.dirty || key != l.lastKey {
		l.rebuild()
		l.lastKey = key
		l.rendered = true
		l.dirty = false
	}
	comp.Render(l.batch)
}

func (l *LastPriceLine) rebuild() {
	l.batch.Clear()
	if !l.has {
		return
	}
	min, max := l.mapper.Price.Domain()
	if l.price < min || l.price > max {
		return // off-scale; boundary equality still renders
	}
	x0, x1 := l.mapper.Time.Range()
	l.batch.Append(shape.HLine{X0: x0, X1: x1, Y: l.mapper.Price.Scale(l.price)})
}
