// Package gateway streams rendered frames to websocket clients and routes
// their navigation commands back to the engine. The wire format is a JSON
// display list: each frame is the ordered sequence of compositor operations
// the renderer produced, with shapes tagged by kind so a canvas on the other
// end can replay them.
package gateway

import (
	"encoding/json"
	"log"
	"time"

	"chartenginev1/internal/model"
	"chartenginev1/internal/shape"
)

// Op is one recorded compositor operation.
type Op struct {
	Op     string      `json:"op"` // setup|clear|shapes|clip|unclip|border
	Width  float64     `json:"w,omitempty"`
	Height float64     `json:"h,omitempty"`
	Rect   *model.Rect `json:"rect,omitempty"`
	Shapes []WireShape `json:"shapes,omitempty"`
}

// WireShape tags a shape with its kind so clients can switch on it.
type WireShape struct {
	Kind  string      `json:"kind"`
	Shape shape.Shape `json:"shape"`
}

// Frame is one complete rendered frame as a display list.
type Frame struct {
	Type   string  `json:"type"` // always "frame"
	Seq    int64   `json:"seq"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
	Ops    []Op    `json:"ops"`
}

// FrameCompositor implements model.Compositor by recording operations into
// a frame. EndFrame encodes the recording and hands it to OnFrame; the host
// calls it once per engine flush. Single-goroutine, like the engine.
type FrameCompositor struct {
	width, height float64
	ops           []Op
	seq           int64

	// OnFrame receives each encoded frame. Required before EndFrame.
	OnFrame func(data []byte)

	// OnEncode optionally observes encode duration and frame size.
	OnEncode func(d time.Duration, bytes int)
}

var _ model.Compositor = (*FrameCompositor)(nil)

// NewFrameCompositor creates an empty recorder.
func NewFrameCompositor() *FrameCompositor {
	return &FrameCompositor{ops: make([]Op, 0, 32)}
}

// SetupHighDPI implements model.Compositor.
func (f *FrameCompositor) SetupHighDPI(width, height float64) {
	f.width, f.height = width, height
	f.ops = append(f.ops, Op{Op: "setup", Width: width, Height: height})
}

// Clear implements model.Compositor.
func (f *FrameCompositor) Clear() {
	f.ops = append(f.ops, Op{Op: "clear"})
}

// Render implements model.Compositor.
func (f *FrameCompositor) Render(batch *shape.Batch) {
	f.RenderShapes(batch.Shapes())
}

// RenderShapes implements model.Compositor.
func (f *FrameCompositor) RenderShapes(shapes []shape.Shape) {
	if len(shapes) == 0 {
		return
	}
	ws := make([]WireShape, len(shapes))
	for i, s := range shapes {
		ws[i] = WireShape{Kind: shapeKind(s), Shape: s}
	}
	f.ops = append(f.ops, Op{Op: "shapes", Shapes: ws})
}

// SetClipRegion implements model.Compositor.
func (f *FrameCompositor) SetClipRegion(bounds model.Rect) {
	r := bounds
	f.ops = append(f.ops, Op{Op: "clip", Rect: &r})
}

// ClearClipRegion implements model.Compositor.
func (f *FrameCompositor) ClearClipRegion() {
	f.ops = append(f.ops, Op{Op: "unclip"})
}

// DrawBorder implements model.Compositor.
func (f *FrameCompositor) DrawBorder(bounds model.Rect) {
	r := bounds
	f.ops = append(f.ops, Op{Op: "border", Rect: &r})
}

// EndFrame encodes the recorded operations and emits them via OnFrame.
// A frame with no operations is skipped.
func (f *FrameCompositor) EndFrame() {
	if len(f.ops) == 0 {
		return
	}
	f.seq++
	frame := Frame{
		Type:   "frame",
		Seq:    f.seq,
		Width:  f.width,
		Height: f.height,
		Ops:    f.ops,
	}
	start := time.Now()
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[gateway] frame encode error: %v", err)
		f.ops = f.ops[:0]
		return
	}
	if f.OnEncode != nil {
		f.OnEncode(time.Since(start), len(data))
	}
	f.ops = f.ops[:0]
	if f.OnFrame != nil {
		f.OnFrame(data)
	}
}

func shapeKind(s shape.Shape) string {
	switch s.(type) {
	case shape.Candle:
		return "candle"
	case shape.Bar:
		return "bar"
	case shape.Polyline:
		return "polyline"
	case shape.Band:
		return "band"
	case shape.HLine:
		return "hline"
	case shape.Segment:
		return "segment"
	case shape.Label:
		return "label"
	default:
		return "unknown"
	}
}
