// Package render turns the chart's panes into per-frame compositor calls:
// pane layout from height percentages, a fixed layer order, and a batcher
// that coalesces render requests into one draw per tick.
package render

// Batcher coalesces render requests: any number of RequestRender calls
// within one tick produce exactly one invocation of the render callback.
// There is no mid-render cancellation — a newer request simply supersedes
// cached state through the studies' render keys.
type Batcher struct {
	pending  bool
	render   func()
	schedule func(flush func())

	// OnRequest, when set, observes every RequestRender call, including
	// the ones coalesced away.
	OnRequest func()
}

// NewBatcher creates a batcher around the render callback. Hosts that drive
// their own frame loop call Flush once per tick; hosts with a scheduler can
// install one via SetScheduler to have Flush deferred for them.
func NewBatcher(render func()) *Batcher {
	return &Batcher{render: render}
}

// SetScheduler installs a deferred-invocation hook. When set, the first
// RequestRender of a tick hands Flush to the scheduler exactly once.
func (b *Batcher) SetScheduler(schedule func(flush func())) {
	b.schedule = schedule
}

// RequestRender marks a render as needed. Subsequent calls before the next
// Flush are no-ops.
func (b *Batcher) RequestRender() {
	if b.OnRequest != nil {
		b.OnRequest()
	}
	if b.pending {
		return
	}
	b.pending = true
	if b.schedule != nil {
		b.schedule(b.Flush)
	}
}

// Flush runs the render callback if one was requested since the last flush.
func (b *Batcher) Flush() {
	if !b.pending {
		return
	}
	b.pending = false
	b.render()
}

// Pending reports whether a render request is waiting.
func (b *Batcher) Pending() bool { return b.pending }
