// Package scale provides the chart's coordinate system: a linear numeric
// scale for prices and an ordinal (gap-aware, index-based) time scale.
// Scales are created once per chart and mutated in place; every mutation
// bumps a version counter that render caches compare instead of re-hashing
// state. Designed for single-goroutine usage — no locks needed.
package scale

import "math"

// Numeric is a linear domain↔pixel mapping with an optional inversion flag
// (canvas Y grows downward, so price scales are inverted).
type Numeric struct {
	domainMin, domainMax float64
	rangeMin, rangeMax   float64
	inverted             bool
	tickSpacing          float64
	version              uint64
}

// NewNumeric creates a numeric scale. inverted=true maps the domain minimum
// to rangeMax (the bottom of the pane).
func NewNumeric(inverted bool) *Numeric {
	return &Numeric{inverted: inverted}
}

// UpdateDomain sets the raw domain bounds without nice-number snapping.
func (s *Numeric) UpdateDomain(min, max float64) {
	s.domainMin, s.domainMax = min, max
	s.tickSpacing = 0
	s.version++
}

// UpdateDomainNice expands [min,max] outward to "nice" round numbers: tick
// spacing is a nice number ({1,2,5,10}×10ᵏ) derived from the span and
// maxTicks, and the bounds snap to multiples of it.
func (s *Numeric) UpdateDomainNice(min, max float64, maxTicks int) {
	if maxTicks < 2 {
		maxTicks = 2
	}
	if min == max {
		// Degenerate span: widen symmetrically so ticks exist.
		pad := math.Abs(min) * 0.01
		if pad == 0 {
			pad = 1
		}
		min, max = min-pad, max+pad
	}
	span := niceNum(max-min, false)
	spacing := niceNum(span/float64(maxTicks-1), true)
	s.domainMin = math.Floor(min/spacing) * spacing
	s.domainMax = math.Ceil(max/spacing) * spacing
	s.tickSpacing = spacing
	s.version++
}

// UpdateRange sets the pixel range bounds.
func (s *Numeric) UpdateRange(min, max float64) {
	s.rangeMin, s.rangeMax = min, max
	s.version++
}

// Domain returns the current domain bounds.
func (s *Numeric) Domain() (min, max float64) { return s.domainMin, s.domainMax }

// Range returns the current pixel range bounds.
func (s *Numeric) Range() (min, max float64) { return s.rangeMin, s.rangeMax }

// Version returns the mutation epoch. It increases on every update, so
// equal versions guarantee an unchanged scale.
func (s *Numeric) Version() uint64 { return s.version }

// Scale maps a domain value to a pixel coordinate.
func (s *Numeric) Scale(v float64) float64 {
	span := s.domainMax - s.domainMin
	if span == 0 {
		return s.rangeMin
	}
	t := (v - s.domainMin) / span
	if s.inverted {
		return s.rangeMax - t*(s.rangeMax-s.rangeMin)
	}
	return s.rangeMin + t*(s.rangeMax-s.rangeMin)
}

// Invert maps a pixel coordinate back to a domain value.
func (s *Numeric) Invert(px float64) float64 {
	rangeSpan := s.rangeMax - s.rangeMin
	if rangeSpan == 0 {
		return s.domainMin
	}
	var t float64
	if s.inverted {
		t = (s.rangeMax - px) / rangeSpan
	} else {
		t = (px - s.rangeMin) / rangeSpan
	}
	return s.domainMin + t*(s.domainMax-s.domainMin)
}

// Ticks returns nicely spaced tick values covering the domain. Returns nil
// when the domain or spacing is degenerate (NaN/Inf/zero span) so callers
// skip tick rendering instead of propagating NaN into pixel output.
func (s *Numeric) Ticks(maxTicks int) []float64 {
	if math.IsNaN(s.domainMin) || math.IsNaN(s.domainMax) ||
		math.IsInf(s.domainMin, 0) || math.IsInf(s.domainMax, 0) {
		return nil
	}
	if s.domainMax <= s.domainMin {
		return nil
	}
	spacing := s.tickSpacing
	if spacing <= 0 {
		if maxTicks < 2 {
			maxTicks = 2
		}
		spacing = niceNum((s.domainMax-s.domainMin)/float64(maxTicks-1), true)
	}
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil
	}
	first := math.Ceil(s.domainMin/spacing) * spacing
	ticks := make([]float64, 0, maxTicks+1)
	// The 0.5*spacing slack tolerates floating error at the upper bound.
	for v := first; v <= s.domainMax+spacing*1e-9; v += spacing {
		ticks = append(ticks, v)
		if len(ticks) > maxTicks*2 {
			break // runaway guard for pathological spacing
		}
	}
	return ticks
}

// niceNum returns a "nice" number close to rng: 1, 2, 5 or 10 times a power
// of ten. round=true picks the nearest nice number, round=false the smallest
// nice number >= rng. Classic graphics-gems axis labeling.
func niceNum(rng float64, round bool) float64 {
	if rng <= 0 || math.IsNaN(rng) || math.IsInf(rng, 0) {
		return 0
	}
	exp := math.Floor(math.Log10(rng))
	frac := rng / math.Pow(10, exp)

	var nice float64
	if round {
		switch {
		case frac < 1.5:
			nice = 1
		case frac < 3:
			nice = 2
		case frac < 7:
			nice = 5
		default:
			nice = 10
		}
	} else {
		switch {
		case frac <= 1:
			nice = 1
		case frac <= 2:
			nice = 2
		case frac <= 5:
			nice = 5
		default:
			nice = 10
		}
	}
	return nice * math.Pow(10, exp)
}
