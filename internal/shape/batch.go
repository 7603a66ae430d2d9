package shape

// Batch is an ordered collection of pixel-space shapes owned by exactly one
// study. The owner rebuilds it lazily; the compositor only ever reads it.
type Batch struct {
	shapes []Shape
}

// NewBatch creates an empty batch with room for n shapes.
func NewBatch(n int) *Batch {
	return &Batch{shapes: make([]Shape, 0, n)}
}

// Append adds a shape at the end.
func (b *Batch) Append(s Shape) {
	b.shapes = append(b.shapes, s)
}

// UpdateLast replaces the most recently appended shape. Appends when the
// batch is empty so a live tick on a fresh batch still lands.
func (b *Batch) UpdateLast(s Shape) {
	if len(b.shapes) == 0 {
		b.shapes = append(b.shapes, s)
		return
	}
	b.shapes[len(b.shapes)-1] = s
}

// Reset replaces the whole batch content, reusing the backing array.
func (b *Batch) Reset(shapes []Shape) {
	b.shapes = b.shapes[:0]
	b.shapes = append(b.shapes, shapes...)
}

// Clear empties the batch, reusing the backing array.
func (b *Batch) Clear() {
	b.shapes = b.shapes[:0]
}

// Shapes returns the live shape slice. Callers must treat it as read-only.
func (b *Batch) Shapes() []Shape { return b.shapes }

// Len returns the number of shapes currently in the batch.
func (b *Batch) Len() int { return len(b.shapes) }
