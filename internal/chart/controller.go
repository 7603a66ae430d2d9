// Package chart wires the engine together: the controller reacts to store
// changes and decides how much recomputation each one needs; the Chart type
// is the public API the host embeds.
//
// All engine state is owned by one logical goroutine. Hosts must marshal
// realtime feed callbacks and control input onto that goroutine themselves
// (cmd/chartd does it with a command channel) — the engine takes no locks.
package chart

import (
	"context"
	"log/slog"
	"math"
	"time"

	"chartenginev1/internal/metrics"
	"chartenginev1/internal/model"
	"chartenginev1/internal/pane"
	"chartenginev1/internal/render"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/series"
	"chartenginev1/internal/study"
	"chartenginev1/internal/zoom"
)

const (
	// pricePaddingRatio is the headroom added above and below the visible
	// high/low when recalculating the shared price scale.
	pricePaddingRatio = 0.02
	// defaultLoadMoreThreshold: panning within this many candles of the
	// dataset start triggers another historical page.
	defaultLoadMoreThreshold = 20
	// defaultInitialVisible is how many of the newest candles the chart
	// shows after a dataset reset.
	defaultInitialVisible = 100
)

// Controller subscribes to store changes and is the single place deciding
// the recomputation strategy per change kind.
type Controller struct {
	store   *series.Store
	scales  *scale.Manager
	zoom    *zoom.Manager
	panes   *pane.Manager
	batcher *render.Batcher
	dm      model.DataManager
	log     *slog.Logger
	met     *metrics.Metrics

	// followRight is the explicit "is the right edge visible" flag: when
	// set, an appended candle shifts the window so the newest candle stays
	// on screen. Maintained at every visible-window mutation instead of
	// being re-derived from index arithmetic at append time.
	followRight bool

	// isLoadingMore guards against concurrent historical fetches.
	isLoadingMore  bool
	hasMoreHistory bool

	// stopped detaches the realtime sink after Destroy; feeds may still
	// deliver a few in-flight candles and those must not mutate the store.
	stopped bool

	loadMoreThreshold float64
	initialVisible    int
}

// NewController wires the controller to its collaborators and subscribes it
// to store changes. met may be nil.
func NewController(store *series.Store, scales *scale.Manager, zm *zoom.Manager,
	panes *pane.Manager, batcher *render.Batcher, dm model.DataManager,
	log *slog.Logger, met *metrics.Metrics) *Controller {

	c := &Controller{
		store:             store,
		scales:            scales,
		zoom:              zm,
		panes:             panes,
		batcher:           batcher,
		dm:                dm,
		log:               log,
		met:               met,
		followRight:       true,
		loadMoreThreshold: defaultLoadMoreThreshold,
		initialVisible:    defaultInitialVisible,
	}
	store.SetOnChange(c.onStoreChange)
	return c
}

// SetLoadMoreThreshold overrides the pan-near-start load trigger distance.
func (c *Controller) SetLoadMoreThreshold(candles float64) {
	c.loadMoreThreshold = candles
}

// SetInitialVisible overrides how many newest candles a reset shows.
func (c *Controller) SetInitialVisible(n int) {
	if n > 0 {
		c.initialVisible = n
	}
}

// LoadInitial fetches the first historical page and resets the store with
// it, then registers the realtime sink.
func (c *Controller) LoadInitial(ctx context.Context) error {
	batch, err := c.dm.LoadHistorical(ctx)
	if err != nil {
		return err
	}
	c.hasMoreHistory = batch.HasMore
	c.store.Reset(batch.Candles)
	c.dm.OnRealtimeUpdate(func(candle model.Candle) {
		if c.stopped {
			return
		}
		c.store.Add(candle)
	})
	c.log.Info("initial history loaded",
		slog.Int("candles", len(batch.Candles)),
		slog.Bool("has_more", batch.HasMore))
	return nil
}

// Stop detaches the realtime sink permanently.
func (c *Controller) Stop() { c.stopped = true }

// onStoreChange is the store's single change callback.
func (c *Controller) onStoreChange(ch model.Change) {
	candles := c.store.All()
	if c.met != nil {
		c.met.StoreChanges.WithLabelValues(ch.Kind.String()).Inc()
	}

	switch ch.Kind {
	case model.ChangeAppend:
		c.syncTimeDomain(candles)
		c.broadcast(func(s study.Study) model.DomainUpdate {
			return s.AppendNewCandle(candles)
		})
		if c.followRight {
			// Keep showing the newest candle: shift the window right by
			// one and re-fit the price scale to the new visible set.
			start, end := c.scales.VisibleIndices()
			c.setVisibleWindow(start+1, end+1)
			c.RecalculatePriceScales()
		} else {
			// The user scrolled back; leave the view untouched.
			c.batcher.RequestRender()
		}

	case model.ChangeUpdate:
		// Always update study state so always-visible indicators (last
		// price line) stay correct even when scrolled away.
		c.broadcast(func(s study.Study) model.DomainUpdate {
			return s.UpdateLastCandle(candles)
		})
		if c.lastCandleVisible(len(candles)) {
			c.RecalculatePriceScales()
		} else {
			// Off-screen tick: skip the O(visible) scale recompute.
			c.batcher.RequestRender()
		}

	case model.ChangePrepend:
		c.syncTimeDomain(candles)
		// Shift the window by what actually landed in front so the
		// on-screen content does not move.
		start, end := c.scales.VisibleIndices()
		c.setVisibleWindow(start+float64(ch.Prepended), end+float64(ch.Prepended))
		c.broadcast(func(s study.Study) model.DomainUpdate {
			return s.PrependHistoricalCandles(candles, ch.Prepended)
		})
		c.RecalculatePriceScales()

	case model.ChangeReset:
		c.syncTimeDomain(candles)
		n := len(candles)
		visible := c.initialVisible
		if visible > n {
			visible = n
		}
		if n > 0 {
			c.setVisibleWindow(float64(n-visible), float64(n-1))
		} else {
			c.setVisibleWindow(0, 0)
		}
		c.broadcast(func(s study.Study) model.DomainUpdate {
			return s.ResetCandles(candles)
		})
		c.RecalculatePriceScales()
	}
}

// broadcast runs one lifecycle event over every pane, timing the pass.
func (c *Controller) broadcast(ev func(study.Study) model.DomainUpdate) {
	start := time.Now()
	c.panes.Broadcast(ev)
	if c.met != nil {
		c.met.StudyRecomputeDur.Observe(time.Since(start).Seconds())
	}
}

// syncTimeDomain rebuilds the time scale's timestamp array from the store.
func (c *Controller) syncTimeDomain(candles []model.Candle) {
	stamps := make([]time.Time, len(candles))
	for i, candle := range candles {
		stamps[i] = candle.TS
	}
	c.scales.SetTimeDomain(stamps)
}

// lastCandleVisible reports whether the last candle index is inside the
// current visible window.
func (c *Controller) lastCandleVisible(n int) bool {
	if n == 0 {
		return false
	}
	start, end := c.scales.VisibleIndices()
	last := float64(n - 1)
	return last >= math.Floor(start) && last <= math.Ceil(end)
}

// setVisibleWindow updates the visible indices and the followRight flag in
// one place, so the flag can never drift from the window state.
func (c *Controller) setVisibleWindow(start, end float64) {
	n := c.scales.DomainLen()
	if n == 0 {
		c.scales.SetVisibleIndices(0, 0)
		c.followRight = true
		return
	}
	max := float64(n - 1)
	if end > max {
		start -= end - max
		end = max
	}
	if start < 0 {
		start = 0
	}
	c.scales.SetVisibleIndices(start, end)
	c.followRight = end >= max-0.5
}

// AfterNavigation re-derives followRight after a zoom/pan mutated the
// window directly, recalculates the price scale for the new visible set and
// triggers historical loading when the view nears the dataset start.
func (c *Controller) AfterNavigation(ctx context.Context) {
	start, end := c.scales.VisibleIndices()
	n := c.scales.DomainLen()
	c.followRight = n == 0 || end >= float64(n-1)-0.5
	c.RecalculatePriceScales()
	c.maybeLoadMore(ctx, start)
}

// maybeLoadMore fetches the next historical page when the window start is
// within the threshold of the dataset start. The isLoadingMore flag keeps
// fetches strictly sequential.
func (c *Controller) maybeLoadMore(ctx context.Context, startIdx float64) {
	if c.isLoadingMore || !c.hasMoreHistory || c.dm == nil {
		return
	}
	if startIdx > c.loadMoreThreshold {
		return
	}
	c.isLoadingMore = true
	defer func() { c.isLoadingMore = false }()

	batch, err := c.dm.LoadHistorical(ctx)
	if err != nil {
		c.log.Error("historical load failed", slog.Any("error", err))
		return
	}
	c.hasMoreHistory = batch.HasMore
	if len(batch.Candles) == 0 {
		return
	}
	if c.met != nil {
		c.met.CandlesLoaded.Add(float64(len(batch.Candles)))
	}
	c.store.Prepend(batch.Candles)
}

// RecalculatePriceScales clamps the visible window into bounds, scans only
// the visible candle slice for high/low, pads by 2%, updates the shared
// price scale, invalidates pane render caches and requests a render.
func (c *Controller) RecalculatePriceScales() {
	candles := c.store.All()
	n := len(candles)
	if n == 0 {
		c.batcher.RequestRender()
		return
	}
	start, end := c.scales.VisibleIndices()
	lo := int(math.Floor(start))
	hi := int(math.Ceil(end))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	low := math.Inf(1)
	high := math.Inf(-1)
	for _, candle := range candles[lo : hi+1] {
		if candle.Low < low {
			low = candle.Low
		}
		if candle.High > high {
			high = candle.High
		}
	}
	if math.IsInf(low, 1) || math.IsInf(high, -1) {
		c.batcher.RequestRender()
		return
	}

	pad := (high - low) * pricePaddingRatio
	if pad == 0 {
		pad = math.Abs(high) * pricePaddingRatio
	}
	c.scales.SetPriceDomainNice(low-pad, high+pad, 5)
	if c.met != nil {
		c.met.PriceScaleRecalcs.Inc()
	}
	c.panes.MarkAllDirty()
	c.batcher.RequestRender()
}
