package model

// Rect is a pixel-space rectangle. Y grows downward (canvas convention).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Padding is the space reserved around the chart area for axes and labels.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Theme carries display colors through to the compositor. The engine never
// interprets them; it stores the theme and re-renders when it changes.
type Theme struct {
	Background string `json:"background"`
	Grid       string `json:"grid"`
	Axis       string `json:"axis"`
	Text       string `json:"text"`
	Rising     string `json:"rising"`
	Falling    string `json:"falling"`
}
