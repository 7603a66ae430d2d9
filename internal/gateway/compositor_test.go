package gateway

import (
	"encoding/json"
	"testing"

	"chartenginev1/internal/model"
	"chartenginev1/internal/shape"
)

// wireFrame mirrors Frame with raw shapes so tests can decode without the
// closed Shape interface.
type wireFrame struct {
	Type string  `json:"type"`
	Seq  int64   `json:"seq"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Ops  []struct {
		Op     string      `json:"op"`
		W      float64     `json:"w"`
		H      float64     `json:"h"`
		Rect   *model.Rect `json:"rect"`
		Shapes []struct {
			Kind  string          `json:"kind"`
			Shape json.RawMessage `json:"shape"`
		} `json:"shapes"`
	} `json:"ops"`
}

func decodeFrame(t *testing.T, data []byte) wireFrame {
	t.Helper()
	var f wireFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("frame does not decode: %v", err)
	}
	return f
}

func TestFrameCompositor_RecordsDisplayList(t *testing.T) {
	var got []byte
	fc := NewFrameCompositor()
	fc.OnFrame = func(data []byte) { got = data }

	fc.SetupHighDPI(800, 600)
	fc.Clear()
	fc.RenderShapes([]shape.Shape{
		shape.Candle{X: 10, Width: 6, OpenY: 100, CloseY: 90, HighY: 85, LowY: 105, Rising: true},
		shape.Polyline{Points: []shape.Vertex{{X: 0, Y: 1}, {X: 10, Y: 2}}},
	})
	clip := model.Rect{X: 16, Y: 16, Width: 700, Height: 500}
	fc.SetClipRegion(clip)
	fc.ClearClipRegion()
	fc.DrawBorder(clip)
	fc.EndFrame()

	if got == nil {
		t.Fatal("OnFrame never fired")
	}
	f := decodeFrame(t, got)

	if f.Type != "frame" || f.Seq != 1 || f.W != 800 || f.H != 600 {
		t.Fatalf("frame header = %+v", f)
	}
	wantOps := []string{"setup", "clear", "shapes", "clip", "unclip", "border"}
	if len(f.Ops) != len(wantOps) {
		t.Fatalf("expected %d ops, got %d", len(wantOps), len(f.Ops))
	}
	for i, w := range wantOps {
		if f.Ops[i].Op != w {
			t.Errorf("op %d = %q, want %q", i, f.Ops[i].Op, w)
		}
	}

	shapes := f.Ops[2].Shapes
	if len(shapes) != 2 || shapes[0].Kind != "candle" || shapes[1].Kind != "polyline" {
		t.Fatalf("wrong shape tags: %+v", shapes)
	}
	var c shape.Candle
	if err := json.Unmarshal(shapes[0].Shape, &c); err != nil {
		t.Fatal(err)
	}
	if c.X != 10 || !c.Rising {
		t.Fatalf("candle did not survive the wire: %+v", c)
	}

	if f.Ops[3].Rect == nil || *f.Ops[3].Rect != clip {
		t.Fatalf("clip rect = %+v, want %+v", f.Ops[3].Rect, clip)
	}
}

func TestFrameCompositor_EmptyFrameIsSkipped(t *testing.T) {
	fired := 0
	fc := NewFrameCompositor()
	fc.OnFrame = func([]byte) { fired++ }

	fc.EndFrame()
	fc.EndFrame()
	if fired != 0 {
		t.Fatalf("empty frames must not emit, got %d", fired)
	}
}

func TestFrameCompositor_SeqIncrementsAndOpsReset(t *testing.T) {
	var frames []wireFrame
	fc := NewFrameCompositor()
	fc.OnFrame = func(data []byte) { frames = append(frames, decodeFrame(t, data)) }

	fc.Clear()
	fc.EndFrame()
	fc.Clear()
	fc.DrawBorder(model.Rect{Width: 10, Height: 10})
	fc.EndFrame()

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Seq != 1 || frames[1].Seq != 2 {
		t.Fatalf("seq = %d, %d", frames[0].Seq, frames[1].Seq)
	}
	if len(frames[0].Ops) != 1 || len(frames[1].Ops) != 2 {
		t.Fatal("ops must reset between frames")
	}
}

func TestFrameCompositor_SkipsEmptyShapeBatches(t *testing.T) {
	fc := NewFrameCompositor()
	fc.RenderShapes(nil)
	fc.Render(shape.NewBatch(0))
	if len(fc.ops) != 0 {
		t.Fatalf("empty shape lists must not record ops, got %d", len(fc.ops))
	}
}

func TestShapeKind_CoversEveryPrimitive(t *testing.T) {
	cases := []struct {
		s    shape.Shape
		want string
	}{
		{shape.Candle{}, "candle"},
		{shape.Bar{}, "bar"},
		{shape.Polyline{}, "polyline"},
		{shape.Band{}, "band"},
		{shape.HLine{}, "hline"},
		{shape.Segment{}, "segment"},
		{shape.Label{}, "label"},
	}
	for _, c := range cases {
		if got := shapeKind(c.s); got != c.want {
			t.Errorf("shapeKind(%T) = %q, want %q", c.s, got, c.want)
		}
	}
}
