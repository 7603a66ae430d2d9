package zoom

import (
	"math"
	"testing"
	"time"

	"chartenginev1/internal/scale"
)

func newScales(domainLen int, start, end float64) *scale.Manager {
	base := time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)
	ts := make([]time.Time, domainLen)
	for i := range ts {
		ts[i] = base.Add(time.Duration(i) * time.Minute)
	}
	m := scale.NewManager()
	m.SetTimeDomain(ts)
	m.SetVisibleIndices(start, end)
	m.SetTimeRange(0, 1000)
	return m
}

func assertWindow(t *testing.T, m *scale.Manager, wantStart, wantEnd float64) {
	t.Helper()
	start, end := m.VisibleIndices()
	if math.Abs(start-wantStart) > 1e-9 || math.Abs(end-wantEnd) > 1e-9 {
		t.Fatalf("window = [%v, %v], want [%v, %v]", start, end, wantStart, wantEnd)
	}
}

func TestZoomIn_RightAnchored(t *testing.T) {
	m := newScales(200, 80, 99) // 20 candles visible
	z := New(m)

	z.ZoomIn(2)
	// 20 candles / 2 = 10; right edge stays at 99.
	assertWindow(t, m, 89, 99)
}

func TestZoomIn_MinVisibleClamp(t *testing.T) {
	m := newScales(200, 88, 99) // 12 visible
	z := New(m)

	z.ZoomIn(4) // 12/4 = 3 < min 10
	assertWindow(t, m, 89, 99)

	if z.CanZoomIn() {
		t.Error("CanZoomIn must be false at the minimum")
	}
}

func TestZoomIn_NoOpFactor(t *testing.T) {
	m := newScales(200, 80, 99)
	z := New(m)
	z.ZoomIn(1)
	assertWindow(t, m, 80, 99)
	z.ZoomIn(0.5)
	assertWindow(t, m, 80, 99)
}

func TestZoomOut_RightAnchored(t *testing.T) {
	m := newScales(200, 89, 99) // span 10
	z := New(m)

	z.ZoomOut(2)
	// Span 10 * 2 = 20; right edge stays at 99.
	assertWindow(t, m, 79, 99)
}

func TestZoomOut_ClampsToDomain(t *testing.T) {
	m := newScales(50, 30, 49)
	z := New(m)

	z.ZoomOut(10) // would exceed the dataset
	assertWindow(t, m, 0, 49)

	if z.CanZoomOut() {
		t.Error("CanZoomOut must be false when the whole dataset is visible")
	}
}

func TestZoomOut_MaxVisibleClamp(t *testing.T) {
	m := newScales(5000, 4000, 4999) // span 999
	z := New(m)

	z.ZoomOut(4) // span would become 3996, above max 2500
	start, end := m.VisibleIndices()
	if end != 4999 {
		t.Fatalf("right edge moved: %v", end)
	}
	if got := end - start + 1; got != DefaultMaxVisible {
		t.Fatalf("visible count = %v, want %v", got, float64(DefaultMaxVisible))
	}
}

func TestPan_ShiftsWindow(t *testing.T) {
	m := newScales(200, 80, 99)
	z := New(m)

	z.Pan(-30)
	assertWindow(t, m, 50, 69)
	z.Pan(10)
	assertWindow(t, m, 60, 79)
}

func TestPan_ClampPreservesSpan(t *testing.T) {
	m := newScales(100, 0, 19)
	z := New(m)

	// Already at the left edge: over-panning left keeps the exact span.
	z.Pan(-10)
	assertWindow(t, m, 0, 19)

	// Over-panning right clamps to the newest candle, same span.
	z.Pan(500)
	assertWindow(t, m, 80, 99)
}

func TestPan_Bounds(t *testing.T) {
	m := newScales(100, 0, 19)
	z := New(m)

	if z.CanPanLeft() {
		t.Error("CanPanLeft must be false at index 0")
	}
	if !z.CanPanRight() {
		t.Error("CanPanRight must be true with newer candles offscreen")
	}

	z.Pan(80)
	if !z.CanPanLeft() {
		t.Error("CanPanLeft must be true after panning right")
	}
	if z.CanPanRight() {
		t.Error("CanPanRight must be false at the newest candle")
	}
}

func TestResetZoom(t *testing.T) {
	m := newScales(300, 250, 299)
	z := New(m)

	z.ResetZoom()
	assertWindow(t, m, 0, 299)
}

func TestZoomLevel(t *testing.T) {
	m := newScales(200, 80, 99)
	z := New(m)

	if got := z.ZoomLevel(); math.Abs(got-10) > 1e-9 {
		t.Fatalf("ZoomLevel = %v, want 10", got)
	}
}
