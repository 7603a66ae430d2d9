package study

import (
	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// bodyWidthRatio is the share of a candle slot the body occupies; the rest
// is the gap between neighboring candles.
const bodyWidthRatio = 0.7

// NewCandleStudy creates the main price pane's candlestick study. It shares
// the common price scale and its value is the candle itself.
func NewCandleStudy(tv scale.TimeView, pv scale.PriceView) *Instant[model.Candle] {
	return NewInstant(InstantSpec[model.Candle]{
		Name:    "candles",
		Compute: func(c model.Candle) model.Candle { return c },
		Extent:  func(c model.Candle) (float64, float64) { return c.Low, c.High },
		Rebuild: rebuildCandles,
	}, tv, pv, nil)
}

func rebuildCandles(pts []Point[model.Candle], m Mapper) []shape.Shape {
	shapes := make([]shape.Shape, 0, len(pts))
	w := m.Time.Step() * bodyWidthRatio
	for _, p := range pts {
		c := p.Value
		shapes = append(shapes, shape.Candle{
			X:      m.X(p.Index),
			Width:  w,
			OpenY:  m.Price.Scale(c.Open),
			CloseY: m.Price.Scale(c.Close),
			HighY:  m.Price.Scale(c.High),
			LowY:   m.Price.Scale(c.Low),
			Rising: c.Rising(),
		})
	}
	return shapes
}

// NewVolumeStudy creates the volume histogram. It owns a private scale from
// 0 up to the maximum visible volume, independent of the price scale, so it
// is a sub-pane primary.
func NewVolumeStudy(tv scale.TimeView) *Instant[float64] {
	own := scale.NewNumeric(true)
	return NewInstant(InstantSpec[float64]{
		Name:    "volume",
		Compute: func(c model.Candle) float64 { return c.Volume },
		Extent:  func(v float64) (float64, float64) { return 0, v },
		Rebuild: rebuildBars,
	}, tv, nil, own)
}

func rebuildBars(pts []Point[float64], m Mapper) []shape.Shape {
	shapes := make([]shape.Shape, 0, len(pts))
	w := m.Time.Step() * bodyWidthRatio
	baseY := m.Price.Scale(0)
	for _, p := range pts {
		shapes = append(shapes, shape.Bar{
			X:     m.X(p.Index),
			Width: w,
			Y:     m.Price.Scale(p.Value),
			BaseY: baseY,
		})
	}
	return shapes
}
