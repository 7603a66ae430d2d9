package model

import (
	"context"

	"chartenginev1/internal/shape"
)

// ── Port interfaces ──
// These decouple the engine from its collaborators. Concrete implementations
// live in internal/feed (data) and internal/gateway (compositor); tests use
// in-memory fakes.

// HistoricalBatch is one page of historical candles, oldest first.
type HistoricalBatch struct {
	Candles []Candle
	HasMore bool
}

// DataManager supplies candle data to the engine. LoadHistorical is called
// again (paging backwards) when the user pans within the load-more threshold
// of the dataset start. OnRealtimeUpdate registers a passive sink; tick
// lifecycle is controlled entirely outside the engine.
type DataManager interface {
	// LoadHistorical returns the next page of older candles.
	// The first call returns the most recent page.
	LoadHistorical(ctx context.Context) (HistoricalBatch, error)

	// OnRealtimeUpdate registers a callback invoked for every live candle
	// tick. The callback must not retain the candle's backing storage.
	OnRealtimeUpdate(fn func(Candle))
}

// Compositor turns shape batches into pixels. The engine is agnostic to how:
// software canvas, GPU, or a wire protocol to a remote canvas.
type Compositor interface {
	// SetupHighDPI prepares the drawing surface for a logical w×h size.
	SetupHighDPI(width, height float64)

	// Clear erases the whole surface. Called once at the start of a frame.
	Clear()

	// Render draws every shape in a study's batch.
	Render(batch *shape.Batch)

	// RenderShapes draws loose shapes (grid, axes, labels).
	RenderShapes(shapes []shape.Shape)

	// SetClipRegion restricts subsequent draws to bounds.
	SetClipRegion(bounds Rect)

	// ClearClipRegion removes the clip set by SetClipRegion.
	ClearClipRegion()

	// DrawBorder strokes the outline of bounds.
	DrawBorder(bounds Rect)
}
