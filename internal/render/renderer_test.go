package render

import (
	"math"
	"testing"
	"time"

	"chartenginev1/internal/model"
	"chartenginev1/internal/pane"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/shape"
	"chartenginev1/internal/study"
)

// recordingCompositor captures the op sequence for layer-order assertions.
type recordingCompositor struct {
	ops   []string
	clips []model.Rect
}

func (c *recordingCompositor) SetupHighDPI(float64, float64) { c.ops = append(c.ops, "setup") }
func (c *recordingCompositor) Clear()                        { c.ops = append(c.ops, "clear") }
func (c *recordingCompositor) Render(*shape.Batch)           { c.ops = append(c.ops, "render") }
func (c *recordingCompositor) RenderShapes(s []shape.Shape)  { c.ops = append(c.ops, "shapes") }
func (c *recordingCompositor) SetClipRegion(b model.Rect) {
	c.ops = append(c.ops, "clip")
	c.clips = append(c.clips, b)
}
func (c *recordingCompositor) ClearClipRegion() { c.ops = append(c.ops, "unclip") }
func (c *recordingCompositor) DrawBorder(model.Rect) {
	c.ops = append(c.ops, "border")
}

func chartFixture(t *testing.T, comp model.Compositor, subPcts ...float64) (*MultiPane, *scale.Manager, *pane.Manager) {
	t.Helper()
	scales := scale.NewManager()
	base := time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)
	ts := make([]time.Time, 100)
	for i := range ts {
		ts[i] = base.Add(time.Duration(i) * time.Minute)
	}
	scales.SetTimeDomain(ts)
	scales.SetVisibleIndices(0, 99)
	scales.SetPriceDomainNice(95, 105, 5)

	panes := pane.NewManager(pane.NewMain(study.NewCandleStudy(scales.TimeView(), scales.PriceView())))
	for i, pct := range subPcts {
		p, err := pane.NewSub(string(rune('a'+i)), study.NewVolumeStudy(scales.TimeView()), pct)
		if err != nil {
			t.Fatal(err)
		}
		panes.AddSub(p)
	}

	return NewMultiPane(scales, panes, comp), scales, panes
}

func TestRelayout_HeightPercentages(t *testing.T) {
	comp := &recordingCompositor{}
	r, _, panes := chartFixture(t, comp, 0.25)

	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}

	// One sub-pane: usable = 600 - 8 spacing = 592.
	main := r.MainBounds()
	if math.Abs(main.Height-592*0.75) > 1e-9 {
		t.Fatalf("main height = %v, want %v", main.Height, 592*0.75)
	}

	sub := panes.Subs()[0].Bounds()
	if math.Abs(sub.Height-592*0.25) > 1e-9 {
		t.Fatalf("sub height = %v, want %v", sub.Height, 592*0.25)
	}
	if math.Abs(sub.Y-(main.Bottom()+8)) > 1e-9 {
		t.Fatalf("sub must start one spacing below the main pane: %v", sub.Y)
	}
	if math.Abs(sub.Bottom()-600) > 1e-9 {
		t.Fatalf("layout must fill the chart exactly, sub bottom = %v", sub.Bottom())
	}
}

func TestRelayout_PaddingShrinksChartArea(t *testing.T) {
	comp := &recordingCompositor{}
	r, scales, _ := chartFixture(t, comp)

	if err := r.SetPadding(model.Padding{Top: 10, Right: 60, Bottom: 30, Left: 20}); err == nil {
		// No size yet: padding alone leaves a non-positive area.
		t.Fatal("expected error before any Resize")
	}
	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}

	cb := r.ChartBounds()
	if cb.X != 20 || cb.Y != 10 || cb.Width != 720 || cb.Height != 560 {
		t.Fatalf("chart bounds = %+v", cb)
	}

	// The shared scales must track the main pane's pixel ranges.
	min, max := timeRange(scales)
	if min != cb.X || max != cb.Right() {
		t.Fatalf("time range [%v, %v] does not match chart bounds", min, max)
	}
}

func timeRange(m *scale.Manager) (float64, float64) {
	return m.TimeView().Range()
}

func TestRelayout_SubPanesConsumeEverything(t *testing.T) {
	comp := &recordingCompositor{}
	r, _, _ := chartFixture(t, comp, 0.6, 0.5)

	if err := r.Resize(800, 600); err == nil {
		t.Fatal("expected layout error when sub-panes exceed the chart height")
	}
}

func TestRenderFrame_LayerOrder(t *testing.T) {
	comp := &recordingCompositor{}
	r, _, _ := chartFixture(t, comp, 0.2)

	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	comp.ops = nil
	r.RenderFrame()

	// Collapse to the structural sequence: clear, grids(shapes), clipped
	// content, labels(shapes), border, axis+time labels(shapes).
	ops := comp.ops
	if len(ops) == 0 || ops[0] != "clear" {
		t.Fatalf("frame must start with clear, got %v", ops)
	}

	idx := func(name string, from int) int {
		for i := from; i < len(ops); i++ {
			if ops[i] == name {
				return i
			}
		}
		return -1
	}

	firstClip := idx("clip", 0)
	if firstClip == -1 {
		t.Fatal("no clip op")
	}
	// All grid shapes precede the first clip.
	border := idx("border", 0)
	if border == -1 {
		t.Fatal("no border op")
	}
	lastUnclip := -1
	for i, op := range ops {
		if op == "unclip" {
			lastUnclip = i
		}
	}
	if !(firstClip < lastUnclip && lastUnclip < border) {
		t.Fatalf("clipped content must finish before the border: %v", ops)
	}
	// Axis and time label passes follow the border.
	if idx("shapes", border) == -1 {
		t.Fatal("expected label shapes after the border")
	}

	// Main pane clip, then one clip per sub-pane.
	clips := 0
	for _, op := range ops {
		if op == "clip" {
			clips++
		}
	}
	if clips != 2 {
		t.Fatalf("expected 2 clip regions (main + sub), got %d", clips)
	}
	if comp.clips[0] != r.MainBounds() {
		t.Fatalf("first clip must be the main pane: %+v", comp.clips[0])
	}
}

func TestRenderFrame_BeforeLayoutIsNoop(t *testing.T) {
	comp := &recordingCompositor{}
	r, _, _ := chartFixture(t, comp)

	r.RenderFrame()
	if len(comp.ops) != 0 {
		t.Fatalf("unlaid-out renderer must not draw, got %v", comp.ops)
	}
}

func TestGridShapes_DegenerateDomainYieldsNoGrid(t *testing.T) {
	comp := &recordingCompositor{}
	r, scales, _ := chartFixture(t, comp)
	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}

	scales.SetPriceDomain(math.NaN(), math.NaN())
	got := r.gridShapes(r.MainBounds(), scales.PriceView())
	if len(got) != 0 {
		t.Fatalf("NaN domain must yield no grid, got %d shapes", len(got))
	}
}
