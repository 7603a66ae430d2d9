package study

import (
	"fmt"
	"math"

	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// BollingerValue is one Bollinger Bands output: middle SMA plus upper/lower
// bands at ±multiplier standard deviations.
type BollingerValue struct {
	Mid   float64
	Upper float64
	Lower float64
}

// NewBollinger creates a Bollinger Bands overlay sharing the pane's price
// scale: SMA(period) ± multiplier*stddev(close) over the trailing window.
func NewBollinger(tv scale.TimeView, pv scale.PriceView, period int, multiplier float64) *Windowed[BollingerValue] {
	return NewWindowed(WindowedSpec[BollingerValue]{
		Name:   fmt.Sprintf("bollinger_%d", period),
		Window: period,
		Compute: func(window []model.Candle, _ BollingerValue, _ bool) BollingerValue {
			n := float64(len(window))
			sum := 0.0
			for _, c := range window {
				sum += c.Close
			}
			mean := sum / n

			variance := 0.0
			for _, c := range window {
				d := c.Close - mean
				variance += d * d
			}
			sd := math.Sqrt(variance / n)

			return BollingerValue{
				Mid:   mean,
				Upper: mean + multiplier*sd,
				Lower: mean - multiplier*sd,
			}
		},
		Extent: func(v BollingerValue) (float64, float64) {
			return v.Lower, v.Upper
		},
		Rebuild: rebuildBollinger,
	}, tv, pv, nil)
}

// rebuildBollinger emits the band fill first so the three lines draw on top.
func rebuildBollinger(pts []Point[BollingerValue], m Mapper) []shape.Shape {
	if len(pts) == 0 {
		return nil
	}
	upper := make([]shape.Vertex, 0, len(pts))
	mid := make([]shape.Vertex, 0, len(pts))
	lower := make([]shape.Vertex, 0, len(pts))
	for _, p := range pts {
		x := m.X(p.Index)
		upper = append(upper, shape.Vertex{X: x, Y: m.Price.Scale(p.Value.Upper)})
		mid = append(mid, shape.Vertex{X: x, Y: m.Price.Scale(p.Value.Mid)})
		lower = append(lower, shape.Vertex{X: x, Y: m.Price.Scale(p.Value.Lower)})
	}
	return []shape.Shape{
		shape.Band{Upper: upper, Lower: lower},
		shape.Polyline{Points: upper},
		shape.Polyline{Points: mid},
		shape.Polyline{Points: lower},
	}
}
