package scale

import "time"

// ── Read-only scale views ──
// The Manager is the single owner of the shared scales. Panes and studies
// receive these views: they can map values to pixels and observe versions,
// but every mutation goes through an explicit Manager (or private-scale
// owner) entry point — never a second owning reference.

// TimeView is the read side of the shared ordinal time scale.
type TimeView interface {
	ScaledValueFromIndex(i float64) float64
	Scale(ts time.Time) (float64, bool)
	VisibleIndices() (start, end float64)
	Range() (min, max float64)
	Step() float64
	DomainLen() int
	Version() uint64
}

// PriceView is the read side of a numeric price scale.
type PriceView interface {
	Scale(v float64) float64
	Domain() (min, max float64)
	Range() (min, max float64)
	Ticks(maxTicks int) []float64
	Version() uint64
}

var (
	_ TimeView  = (*OrdinalTime)(nil)
	_ PriceView = (*Numeric)(nil)
)
