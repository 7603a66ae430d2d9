// Package pane groups studies into rendering strips: one main price pane
// plus zero or more indicator sub-panes. Panes broadcast store lifecycle
// events to their studies and merge the returned domain updates
// (min-of-mins, max-of-maxes).
package pane

import (
	"fmt"

	"chartenginev1/internal/model"
	"chartenginev1/internal/study"
)

// MainPane holds exactly one candle study plus any number of overlay
// studies, all sharing the common price scale.
type MainPane struct {
	candle   study.Study
	overlays []study.Study
}

// NewMain creates the main pane around its candle study.
func NewMain(candle study.Study) *MainPane {
	return &MainPane{candle: candle}
}

// AddOverlay attaches an overlay study (SMA/EMA/Bollinger/last-price line).
func (p *MainPane) AddOverlay(s study.Study) {
	p.overlays = append(p.overlays, s)
}

// Studies returns the pane's studies in render order: candles first, then
// overlays in insertion order.
func (p *MainPane) Studies() []study.Study {
	out := make([]study.Study, 0, 1+len(p.overlays))
	out = append(out, p.candle)
	return append(out, p.overlays...)
}

// Broadcast sends one lifecycle event to every study and merges the
// returned domain updates.
func (p *MainPane) Broadcast(ev func(study.Study) model.DomainUpdate) model.DomainUpdate {
	var merged model.DomainUpdate
	for _, s := range p.Studies() {
		merged.Merge(ev(s))
	}
	return merged
}

// SubPane wraps one primary study, which must own its Y scale, plus
// optional secondary studies sharing that scale.
type SubPane struct {
	id            string
	primary       study.Study
	secondaries   []study.Study
	heightPercent float64
	bounds        model.Rect
}

// NewSub creates a sub-pane. The primary study must expose a private scale;
// heightPercent is its share of the chart height (0 < pct < 1).
func NewSub(id string, primary study.Study, heightPercent float64, secondaries ...study.Study) (*SubPane, error) {
	if primary.OwnScale() == nil {
		return nil, fmt.Errorf("pane: sub-pane %q primary study %q has no private scale", id, primary.Name())
	}
	if heightPercent <= 0 || heightPercent >= 1 {
		return nil, fmt.Errorf("pane: sub-pane %q height percent %.3f out of (0,1)", id, heightPercent)
	}
	return &SubPane{
		id:            id,
		primary:       primary,
		secondaries:   secondaries,
		heightPercent: heightPercent,
	}, nil
}

// ID returns the sub-pane identifier.
func (p *SubPane) ID() string { return p.id }

// HeightPercent returns the pane's share of the chart height.
func (p *SubPane) HeightPercent() float64 { return p.heightPercent }

// Bounds returns the pane's current pixel bounds.
func (p *SubPane) Bounds() model.Rect { return p.bounds }

// Primary returns the pane's primary study.
func (p *SubPane) Primary() study.Study { return p.primary }

// Studies returns the pane's studies in render order.
func (p *SubPane) Studies() []study.Study {
	out := make([]study.Study, 0, 1+len(p.secondaries))
	out = append(out, p.primary)
	return append(out, p.secondaries...)
}

// SetBounds stores the pane's pixel bounds and forwards them to every
// study so private scales can remap.
func (p *SubPane) SetBounds(b model.Rect) {
	p.bounds = b
	for _, s := range p.Studies() {
		s.UpdateScaleBounds(b)
	}
}

// Broadcast sends one lifecycle event to every study, merges the returned
// domain updates, and applies the merged Y extent to the primary's private
// scale so the whole pane shares one domain.
func (p *SubPane) Broadcast(ev func(study.Study) model.DomainUpdate) model.DomainUpdate {
	var merged model.DomainUpdate
	for _, s := range p.Studies() {
		merged.Merge(ev(s))
	}
	if merged.HasY {
		p.primary.OwnScale().UpdateDomain(merged.YMin, merged.YMax)
	}
	return merged
}

// Manager owns the main pane and the sub-panes and fans lifecycle events
// out to all of them.
type Manager struct {
	main *MainPane
	subs []*SubPane
}

// NewManager creates a pane manager around the main pane.
func NewManager(main *MainPane) *Manager {
	return &Manager{main: main}
}

// Main returns the main pane.
func (m *Manager) Main() *MainPane { return m.main }

// Subs returns the sub-panes in creation order.
func (m *Manager) Subs() []*SubPane { return m.subs }

// AddSub attaches a sub-pane.
func (m *Manager) AddSub(p *SubPane) {
	m.subs = append(m.subs, p)
}

// RemoveSub detaches the sub-pane with the given id and reports whether it
// existed.
func (m *Manager) RemoveSub(id string) bool {
	for i, p := range m.subs {
		if p.id == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Sub returns the sub-pane with the given id.
func (m *Manager) Sub(id string) (*SubPane, bool) {
	for _, p := range m.subs {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// Broadcast fans one lifecycle event out to every pane and merges every
// study's domain update.
func (m *Manager) Broadcast(ev func(study.Study) model.DomainUpdate) model.DomainUpdate {
	merged := m.main.Broadcast(ev)
	for _, p := range m.subs {
		merged.Merge(p.Broadcast(ev))
	}
	return merged
}

// MarkAllDirty invalidates every study's render cache. Called when shared
// scales changed underneath them.
func (m *Manager) MarkAllDirty() {
	for _, s := range m.main.Studies() {
		s.MarkDirty()
	}
	for _, p := range m.subs {
		for _, s := range p.Studies() {
			s.MarkDirty()
		}
	}
}
