package scale

import "time"

// Manager owns the shared time scale and the shared price scale. It is the
// only component allowed to mutate them; everyone else holds TimeView /
// PriceView handles obtained here.
type Manager struct {
	timeScale  *OrdinalTime
	priceScale *Numeric
}

// NewManager creates the shared scales. The price scale is inverted because
// canvas Y grows downward.
func NewManager() *Manager {
	return &Manager{
		timeScale:  NewOrdinalTime(),
		priceScale: NewNumeric(true),
	}
}

// TimeView returns the read-only view of the shared time scale.
func (m *Manager) TimeView() TimeView { return m.timeScale }

// PriceView returns the read-only view of the shared price scale.
func (m *Manager) PriceView() PriceView { return m.priceScale }

// SetTimeDomain replaces the full timestamp array.
func (m *Manager) SetTimeDomain(ts []time.Time) {
	m.timeScale.UpdateDomain(ts)
}

// SetVisibleIndices updates the fractional visible window.
func (m *Manager) SetVisibleIndices(start, end float64) {
	m.timeScale.UpdateVisibleIndices(start, end)
}

// VisibleIndices returns the current fractional visible window.
func (m *Manager) VisibleIndices() (start, end float64) {
	return m.timeScale.VisibleIndices()
}

// DomainLen returns the number of candles in the time domain.
func (m *Manager) DomainLen() int { return m.timeScale.DomainLen() }

// SetTimeRange updates the horizontal pixel range.
func (m *Manager) SetTimeRange(min, max float64) {
	m.timeScale.UpdateRange(min, max)
}

// SetPriceDomainNice expands the shared price domain to nice round bounds.
func (m *Manager) SetPriceDomainNice(min, max float64, maxTicks int) {
	m.priceScale.UpdateDomainNice(min, max, maxTicks)
}

// SetPriceDomain sets the shared price domain exactly.
func (m *Manager) SetPriceDomain(min, max float64) {
	m.priceScale.UpdateDomain(min, max)
}

// SetPriceRange updates the vertical pixel range of the shared price scale.
func (m *Manager) SetPriceRange(min, max float64) {
	m.priceScale.UpdateRange(min, max)
}

// InvertTime maps a pixel X back to a candle index.
func (m *Manager) InvertTime(px float64) (int, error) {
	return m.timeScale.Invert(px)
}

// TimestampAt returns the timestamp at a domain index.
func (m *Manager) TimestampAt(i int) (time.Time, bool) {
	return m.timeScale.TimestampAt(i)
}

// BoxWidth returns the pixel width of one candle slot.
func (m *Manager) BoxWidth() float64 { return m.timeScale.Step() }
