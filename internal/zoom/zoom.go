// Package zoom implements right-anchored zooming and bounded horizontal
// panning over the shared time scale's visible-index window.
package zoom

import "chartenginev1/internal/scale"

// Defaults for the visible-candle bounds.
const (
	DefaultMinVisible = 10
	DefaultMaxVisible = 2500
)

// Manager mutates the shared time scale's visible window through the scale
// Manager. It never touches price scales or candle data.
type Manager struct {
	scales     *scale.Manager
	minVisible float64
	maxVisible float64
}

// New creates a zoom manager with the default visible-candle bounds.
func New(scales *scale.Manager) *Manager {
	return &Manager{
		scales:     scales,
		minVisible: DefaultMinVisible,
		maxVisible: DefaultMaxVisible,
	}
}

// SetVisibleBounds overrides the min/max visible candle counts.
func (z *Manager) SetVisibleBounds(min, max float64) {
	z.minVisible, z.maxVisible = min, max
}

// ZoomIn shrinks the visible range by factor, keeping the rightmost visible
// candle fixed: the new start is endIndex minus the reduced candle count.
// factor <= 1 is a no-op.
func (z *Manager) ZoomIn(factor float64) {
	if factor <= 1 {
		return
	}
	start, end := z.scales.VisibleIndices()
	count := end - start + 1
	newCount := count / factor
	if newCount < z.minVisible {
		newCount = z.minVisible
	}
	z.scales.SetVisibleIndices(end-newCount, end)
}

// ZoomOut grows the visible index span by factor, keeping the rightmost
// visible candle fixed and capping at maxVisible (and at the dataset size).
func (z *Manager) ZoomOut(factor float64) {
	if factor <= 1 {
		return
	}
	start, end := z.scales.VisibleIndices()
	span := (end - start) * factor
	if span+1 > z.maxVisible {
		span = z.maxVisible - 1
	}
	if n := float64(z.scales.DomainLen()); n > 0 && span > n-1 {
		span = n - 1
	}
	newStart := end - span
	if newStart < 0 {
		newStart = 0
	}
	z.scales.SetVisibleIndices(newStart, end)
}

// Pan shifts the visible window by deltaCandles (positive = toward newer
// candles). At either boundary the shift clamps while preserving the exact
// visible range — panning never changes the zoom level.
func (z *Manager) Pan(deltaCandles float64) {
	start, end := z.scales.VisibleIndices()
	n := float64(z.scales.DomainLen())
	if n == 0 {
		return
	}
	visible := end - start
	newStart := start + deltaCandles
	newEnd := end + deltaCandles
	if newStart < 0 {
		newStart = 0
		newEnd = visible
	}
	if newEnd > n-1 {
		newEnd = n - 1
		newStart = newEnd - visible
	}
	z.scales.SetVisibleIndices(newStart, newEnd)
}

// ResetZoom makes the full domain visible.
func (z *Manager) ResetZoom() {
	n := z.scales.DomainLen()
	if n == 0 {
		return
	}
	z.scales.SetVisibleIndices(0, float64(n-1))
}

// CanZoomIn reports whether the visible range is above the minimum. ZoomIn
// clamps the window to an index span of minVisible, so the span (not the
// inclusive count) is what gets compared.
func (z *Manager) CanZoomIn() bool {
	start, end := z.scales.VisibleIndices()
	return end-start > z.minVisible
}

// CanZoomOut reports whether the visible range is below both the maximum
// and the dataset size.
func (z *Manager) CanZoomOut() bool {
	start, end := z.scales.VisibleIndices()
	visible := end - start + 1
	if visible >= z.maxVisible {
		return false
	}
	return visible < float64(z.scales.DomainLen())
}

// CanPanLeft reports whether older candles exist left of the window.
func (z *Manager) CanPanLeft() bool {
	start, _ := z.scales.VisibleIndices()
	return start > 0
}

// CanPanRight reports whether newer candles exist right of the window.
func (z *Manager) CanPanRight() bool {
	_, end := z.scales.VisibleIndices()
	return end < float64(z.scales.DomainLen()-1)
}

// ZoomLevel returns visible/total as a percentage.
func (z *Manager) ZoomLevel() float64 {
	n := z.scales.DomainLen()
	if n == 0 {
		return 0
	}
	start, end := z.scales.VisibleIndices()
	return (end - start + 1) / float64(n) * 100
}
