package study

import (
	"fmt"

	"chartenginev1/internal/model"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

// polylineRebuild builds a single connected line through the visible points.
func polylineRebuild(pts []Point[float64], m Mapper) []shape.Shape {
	if len(pts) == 0 {
		return nil
	}
	verts := make([]shape.Vertex, 0, len(pts))
	for _, p := range pts {
		verts = append(verts, shape.Vertex{X: m.X(p.Index), Y: m.Price.Scale(p.Value)})
	}
	return []shape.Shape{shape.Polyline{Points: verts}}
}

func pointExtent(v float64) (float64, float64) { return v, v }

// NewSMA creates a simple moving average overlay: the arithmetic mean of
// closes over the trailing window.
func NewSMA(tv scale.TimeView, pv scale.PriceView, period int) *Windowed[float64] {
	return NewWindowed(WindowedSpec[float64]{
		Name:   fmt.Sprintf("sma_%d", period),
		Window: period,
		Compute: func(window []model.Candle, _ float64, _ bool) float64 {
			sum := 0.0
			for _, c := range window {
				sum += c.Close
			}
			return sum / float64(len(window))
		},
		Extent:  pointExtent,
		Rebuild: polylineRebuild,
	}, tv, pv, nil)
}

// NewEMA creates an exponential moving average overlay. The first point
// seeds with the SMA of its window; later points chain on the previous EMA:
// (close-prev)*k + prev with k = 2/(period+1).
func NewEMA(tv scale.TimeView, pv scale.PriceView, period int) *Windowed[float64] {
	k := 2.0 / float64(period+1)
	return NewWindowed(WindowedSpec[float64]{
		Name:   fmt.Sprintf("ema_%d", period),
		Window: period,
		Compute: func(window []model.Candle, prev float64, hasPrev bool) float64 {
			if !hasPrev {
				sum := 0.0
				for _, c := range window {
					sum += c.Close
				}
				return sum / float64(len(window))
			}
			close := window[len(window)-1].Close
			return (close-prev)*k + prev
		},
		Extent:  pointExtent,
		Rebuild: polylineRebuild,
	}, tv, pv, nil)
}

// NewRSI creates a relative strength index study on its own 0-clamped scale,
// making it a sub-pane primary. One value needs period deltas, so the window
// is period+1 candles. RSI = 100 - 100/(1+avgGain/avgLoss); a window with
// zero losses reads exactly 100.
func NewRSI(tv scale.TimeView, period int) *Windowed[float64] {
	own := scale.NewNumeric(true)
	return NewWindowed(WindowedSpec[float64]{
		Name:   fmt.Sprintf("rsi_%d", period),
		Window: period + 1,
		Compute: func(window []model.Candle, _ float64, _ bool) float64 {
			var gain, loss float64
			for i := 1; i < len(window); i++ {
				delta := window[i].Close - window[i-1].Close
				if delta > 0 {
					gain += delta
				} else {
					loss -= delta
				}
			}
			avgGain := gain / float64(period)
			avgLoss := loss / float64(period)
			if avgLoss == 0 {
				return 100.0
			}
			rs := avgGain / avgLoss
			return 100.0 - 100.0/(1.0+rs)
		},
		Extent:  pointExtent,
		Rebuild: polylineRebuild,
	}, tv, nil, own)
}
