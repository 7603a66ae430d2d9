package render

import (
	"fmt"
	"math"
	"strconv"

	"chartenginev1/internal/model"
	"chartenginev1/internal/pane"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
)

const (
	// paneSpacing is the vertical gap between panes, in pixels.
	paneSpacing = 8.0
	// priceTickTarget is the tick count grid/label generation aims for.
	priceTickTarget = 5
	// timeLabelTarget is how many time-axis labels a frame aims for.
	timeLabelTarget = 6
)

// MultiPane computes pane pixel bounds from height percentages and runs the
// per-frame render pass in a fixed layer order. Layout is recomputed only on
// structural changes (resize, pane add, padding change), never per frame.
type MultiPane struct {
	scales *scale.Manager
	panes  *pane.Manager
	comp   model.Compositor

	width, height float64
	padding       model.Padding

	chartBounds model.Rect
	mainBounds  model.Rect
	laidOut     bool
}

// NewMultiPane creates the renderer. Call Relayout before the first frame.
func NewMultiPane(scales *scale.Manager, panes *pane.Manager, comp model.Compositor) *MultiPane {
	return &MultiPane{scales: scales, panes: panes, comp: comp}
}

// Resize updates the total surface size and relayouts.
func (r *MultiPane) Resize(width, height float64) error {
	r.width, r.height = width, height
	r.comp.SetupHighDPI(width, height)
	return r.Relayout()
}

// SetPadding updates the outer padding and relayouts.
func (r *MultiPane) SetPadding(p model.Padding) error {
	r.padding = p
	return r.Relayout()
}

// MainBounds returns the main pane's pixel bounds from the last layout.
func (r *MultiPane) MainBounds() model.Rect { return r.mainBounds }

// ChartBounds returns the full chart area (total minus padding).
func (r *MultiPane) ChartBounds() model.Rect { return r.chartBounds }

// Relayout recomputes pane bounds from height percentages and pushes the
// resulting pixel ranges into the scales. Sub-pane heights are fractions of
// the chart height net of inter-pane spacing; the main pane gets the rest.
// A main-pane share of zero or less is a configuration error.
func (r *MultiPane) Relayout() error {
	r.chartBounds = model.Rect{
		X:      r.padding.Left,
		Y:      r.padding.Top,
		Width:  r.width - r.padding.Left - r.padding.Right,
		Height: r.height - r.padding.Top - r.padding.Bottom,
	}
	if r.chartBounds.Width <= 0 || r.chartBounds.Height <= 0 {
		return fmt.Errorf("render: chart area %.0fx%.0f not positive after padding",
			r.chartBounds.Width, r.chartBounds.Height)
	}

	subs := r.panes.Subs()
	spacing := paneSpacing * float64(len(subs))
	usable := r.chartBounds.Height - spacing

	subTotal := 0.0
	for _, p := range subs {
		subTotal += p.HeightPercent()
	}
	mainH := usable * (1 - subTotal)
	if mainH <= 0 {
		return fmt.Errorf("render: sub-pane heights consume %.0f%% of the chart, nothing left for the main pane",
			subTotal*100)
	}

	r.mainBounds = model.Rect{
		X:      r.chartBounds.X,
		Y:      r.chartBounds.Y,
		Width:  r.chartBounds.Width,
		Height: mainH,
	}

	y := r.mainBounds.Bottom() + paneSpacing
	for _, p := range subs {
		h := usable * p.HeightPercent()
		p.SetBounds(model.Rect{X: r.chartBounds.X, Y: y, Width: r.chartBounds.Width, Height: h})
		y += h + paneSpacing
	}

	r.scales.SetTimeRange(r.mainBounds.X, r.mainBounds.Right())
	r.scales.SetPriceRange(r.mainBounds.Y, r.mainBounds.Bottom())
	r.panes.MarkAllDirty()
	r.laidOut = true
	return nil
}

// RenderFrame runs one render pass in the fixed layer order: grid lines,
// clipped pane content, unclipped infrastructure (price labels), chart
// border, axis lines, axis tick labels. Degenerate elements are skipped
// rather than letting NaN reach pixel output.
func (r *MultiPane) RenderFrame() {
	if !r.laidOut {
		return
	}
	r.comp.Clear()

	// Layer 1: grid lines for every pane.
	r.comp.RenderShapes(r.gridShapes(r.mainBounds, r.scales.PriceView()))
	for _, p := range r.panes.Subs() {
		r.comp.RenderShapes(r.gridShapes(p.Bounds(), p.Primary().OwnScale()))
	}
	r.comp.RenderShapes(r.timeGridShapes())

	// Layer 2: pane content under a clip scoped to the pane's bounds.
	r.comp.SetClipRegion(r.mainBounds)
	for _, s := range r.panes.Main().Studies() {
		s.RenderTo(r.comp)
	}
	r.comp.ClearClipRegion()
	for _, p := range r.panes.Subs() {
		r.comp.SetClipRegion(p.Bounds())
		for _, s := range p.Studies() {
			s.RenderTo(r.comp)
		}
		r.comp.ClearClipRegion()
	}

	// Layer 3: infrastructure, unclipped so labels may overlay the axis.
	r.comp.RenderShapes(r.priceLabelShapes(r.mainBounds, r.scales.PriceView()))
	for _, p := range r.panes.Subs() {
		r.comp.RenderShapes(r.priceLabelShapes(p.Bounds(), p.Primary().OwnScale()))
	}

	// Layer 4: chart border.
	r.comp.DrawBorder(r.chartBounds)

	// Layers 5 and 6: axis lines, then tick labels.
	r.comp.RenderShapes(r.axisLineShapes())
	r.comp.RenderShapes(r.timeLabelShapes())
}

// gridShapes emits horizontal grid lines at the scale's tick values. A nil
// tick slice (degenerate domain) yields no grid.
func (r *MultiPane) gridShapes(b model.Rect, pv scale.PriceView) []shape.Shape {
	if pv == nil {
		return nil
	}
	ticks := pv.Ticks(priceTickTarget)
	shapes := make([]shape.Shape, 0, len(ticks))
	for _, t := range ticks {
		y := pv.Scale(t)
		if math.IsNaN(y) || math.IsInf(y, 0) || y < b.Y || y > b.Bottom() {
			continue
		}
		shapes = append(shapes, shape.Segment{X0: b.X, Y0: y, X1: b.Right(), Y1: y})
	}
	return shapes
}

// timeGridShapes emits vertical grid lines across all panes at evenly spaced
// visible candle indices.
func (r *MultiPane) timeGridShapes() []shape.Shape {
	tv := r.scales.TimeView()
	start, end := tv.VisibleIndices()
	visible := end - start
	if visible <= 0 || tv.DomainLen() == 0 {
		return nil
	}
	stride := math.Ceil(visible / timeLabelTarget)
	if stride <= 0 || math.IsNaN(stride) {
		return nil
	}
	shapes := make([]shape.Shape, 0, timeLabelTarget+1)
	for i := math.Ceil(start/stride) * stride; i <= end; i += stride {
		x := tv.ScaledValueFromIndex(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		shapes = append(shapes, shape.Segment{
			X0: x, Y0: r.chartBounds.Y,
			X1: x, Y1: r.chartBounds.Bottom(),
		})
	}
	return shapes
}

// priceLabelShapes emits tick-value labels along a pane's right edge.
func (r *MultiPane) priceLabelShapes(b model.Rect, pv scale.PriceView) []shape.Shape {
	if pv == nil {
		return nil
	}
	ticks := pv.Ticks(priceTickTarget)
	shapes := make([]shape.Shape, 0, len(ticks))
	for _, t := range ticks {
		y := pv.Scale(t)
		if math.IsNaN(y) || math.IsInf(y, 0) || y < b.Y || y > b.Bottom() {
			continue
		}
		shapes = append(shapes, shape.Label{
			X:    b.Right() + 4,
			Y:    y,
			Text: strconv.FormatFloat(t, 'f', -1, 64),
		})
	}
	return shapes
}

// axisLineShapes emits the Y axis (right edge) and X axis (bottom edge).
func (r *MultiPane) axisLineShapes() []shape.Shape {
	cb := r.chartBounds
	return []shape.Shape{
		shape.Segment{X0: cb.Right(), Y0: cb.Y, X1: cb.Right(), Y1: cb.Bottom()},
		shape.Segment{X0: cb.X, Y0: cb.Bottom(), X1: cb.Right(), Y1: cb.Bottom()},
	}
}

// timeLabelShapes emits timestamp labels under the X axis at the same
// stride as the vertical grid.
func (r *MultiPane) timeLabelShapes() []shape.Shape {
	tv := r.scales.TimeView()
	start, end := tv.VisibleIndices()
	visible := end - start
	if visible <= 0 || tv.DomainLen() == 0 {
		return nil
	}
	stride := math.Ceil(visible / timeLabelTarget)
	if stride <= 0 || math.IsNaN(stride) {
		return nil
	}
	shapes := make([]shape.Shape, 0, timeLabelTarget+1)
	for i := math.Ceil(start/stride) * stride; i <= end; i += stride {
		ts, ok := r.scales.TimestampAt(int(i))
		if !ok {
			continue
		}
		x := tv.ScaledValueFromIndex(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		shapes = append(shapes, shape.Label{
			X:    x,
			Y:    r.chartBounds.Bottom() + 14,
			Text: ts.UTC().Format(timeLabelFormat(visible)),
		})
	}
	return shapes
}

// timeLabelFormat picks a label granularity from the visible span.
func timeLabelFormat(visibleCandles float64) string {
	if visibleCandles > 500 {
		return "Jan 02"
	}
	return "15:04"
}
