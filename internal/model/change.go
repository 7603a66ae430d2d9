package model

// ChangeKind classifies a TimeSeriesStore mutation so consumers can pick the
// cheapest recomputation strategy for it.
type ChangeKind uint8

const (
	// ChangeAppend — a new candle arrived after the current last one.
	ChangeAppend ChangeKind = iota
	// ChangeUpdate — the last candle was replaced in place (live tick).
	ChangeUpdate
	// ChangePrepend — older candles were inserted before the first one.
	ChangePrepend
	// ChangeReset — the whole dataset was replaced.
	ChangeReset
)

// String returns the change kind name for logs.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAppend:
		return "append"
	case ChangeUpdate:
		return "update"
	case ChangePrepend:
		return "prepend"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change describes one store mutation.
type Change struct {
	Kind ChangeKind

	// Prepended is the number of candles actually inserted before the
	// previous first candle. Set only for ChangePrepend — consumers shift
	// their visible window by exactly this much to keep content stable.
	Prepended int
}

// DomainUpdate is a study's report of how its latest output extends the
// time (X) and value (Y) bounds of its pane. Zero-value means "no change".
type DomainUpdate struct {
	HasX       bool
	XMin, XMax float64 // Unix milliseconds
	HasY       bool
	YMin, YMax float64
}

// Merge widens u to cover o: min of mins, max of maxes per axis.
func (u *DomainUpdate) Merge(o DomainUpdate) {
	if o.HasX {
		if !u.HasX {
			u.HasX, u.XMin, u.XMax = true, o.XMin, o.XMax
		} else {
			if o.XMin < u.XMin {
				u.XMin = o.XMin
			}
			if o.XMax > u.XMax {
				u.XMax = o.XMax
			}
		}
	}
	if o.HasY {
		if !u.HasY {
			u.HasY, u.YMin, u.YMax = true, o.YMin, o.YMax
		} else {
			if o.YMin < u.YMin {
				u.YMin = o.YMin
			}
			if o.YMax > u.YMax {
				u.YMax = o.YMax
			}
		}
	}
}
