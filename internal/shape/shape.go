// Package shape defines the pixel-space render primitives the engine emits.
// A Shape is pure geometry: the compositor decides how primitives map to
// pixels, colors and stroke widths. The set of primitives is closed so a
// compositor can switch over every case it will ever see.
package shape

// Shape is one pixel-space render primitive. Implementations form a closed
// set: Candle, Bar, Polyline, Band, HLine, Segment and Label.
type Shape interface {
	isShape()
}

// Candle is one candlestick: a body between OpenY and CloseY plus a wick
// from HighY to LowY, centered on X.
type Candle struct {
	X      float64 `json:"x"` // center of the candle slot
	Width  float64 `json:"w"` // body width
	OpenY  float64 `json:"open_y"`
	CloseY float64 `json:"close_y"`
	HighY  float64 `json:"high_y"`
	LowY   float64 `json:"low_y"`
	Rising bool    `json:"rising"` // close >= open
}

// Bar is a vertical bar from BaseY to Y, centered on X (volume histogram).
type Bar struct {
	X     float64 `json:"x"`
	Width float64 `json:"w"`
	Y     float64 `json:"y"`
	BaseY float64 `json:"base_y"`
}

// Vertex is one point of a polyline or band edge.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polyline is a connected line through Points (SMA/EMA/RSI curves).
type Polyline struct {
	Points []Vertex `json:"points"`
}

// Band is a filled region between the Upper and Lower edges (Bollinger fill).
// Both edges run left to right and have the same length.
type Band struct {
	Upper []Vertex `json:"upper"`
	Lower []Vertex `json:"lower"`
}

// HLine is a horizontal line spanning X0..X1 at Y (last-price line).
type HLine struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y  float64 `json:"y"`
}

// Segment is an arbitrary line segment (grid and axis lines).
type Segment struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Label is a text annotation anchored at (X, Y) — axis ticks, price labels.
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

func (Candle) isShape()   {}
func (Bar) isShape()      {}
func (Polyline) isShape() {}
func (Band) isShape()     {}
func (HLine) isShape()    {}
func (Segment) isShape()  {}
func (Label) isShape()    {}
