// Package model holds the chart engine's domain types and the port
// interfaces that decouple the engine from its collaborators (data sources
// and the pixel compositor).
package model

import (
	"encoding/json"
	"time"
)

// Candle is one time-bucketed OHLC summary. Immutable value: studies derive
// from candles and never write back into them.
type Candle struct {
	TS           time.Time `json:"ts"` // bucket start, UTC
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	OpenInterest float64   `json:"oi,omitempty"` // 0 when the feed has none
}

// Rising reports whether the candle closed at or above its open.
func (c Candle) Rising() bool { return c.Close >= c.Open }

// JSON returns the JSON-encoded candle (errors ignored for hot-path usage).
func (c Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
