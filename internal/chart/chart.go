package chart

import (
	"context"
	"fmt"
	"log/slog"

	"chartenginev1/internal/metrics"
	"chartenginev1/internal/model"
	"chartenginev1/internal/pane"
	"chartenginev1/internal/render"
	"chartenginev1/internal/scale"
	"chartenginev1/internal/series"
	"chartenginev1/internal/study"
	"chartenginev1/internal/zoom"
)

// Config configures a Chart.
type Config struct {
	Width   float64
	Height  float64
	Padding model.Padding

	// InitialVisible is how many of the newest candles to show after the
	// initial load. Default 100.
	InitialVisible int

	// LoadMoreThreshold: panning within this many candles of the dataset
	// start fetches another historical page. Default 20.
	LoadMoreThreshold float64

	// Logger receives engine events. Required.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Chart is the public face of the engine. All methods must be called from
// the single goroutine that owns the chart.
type Chart struct {
	store      *series.Store
	scales     *scale.Manager
	zoom       *zoom.Manager
	panes      *pane.Manager
	renderer   *render.MultiPane
	batcher    *render.Batcher
	controller *Controller
	log        *slog.Logger
	met        *metrics.Metrics

	theme     model.Theme
	destroyed bool
}

// New assembles a chart around a data manager and a compositor. The main
// pane is created with the candlestick study and the last-price line; call
// AddOverlayStudy / CreateSubPane before Initialize to extend it.
func New(dm model.DataManager, comp model.Compositor, cfg Config) *Chart {
	scales := scale.NewManager()
	zm := zoom.New(scales)
	store := series.New()

	candles := study.NewCandleStudy(scales.TimeView(), scales.PriceView())
	main := pane.NewMain(candles)
	main.AddOverlay(study.NewLastPriceLine(scales.TimeView(), scales.PriceView()))
	panes := pane.NewManager(main)

	renderer := render.NewMultiPane(scales, panes, comp)
	c := &Chart{
		store:    store,
		scales:   scales,
		zoom:     zm,
		panes:    panes,
		renderer: renderer,
		log:      cfg.Logger,
		met:      cfg.Metrics,
	}
	c.batcher = render.NewBatcher(func() {
		renderer.RenderFrame()
		if c.met != nil {
			c.met.FramesRendered.Inc()
		}
	})
	if c.met != nil {
		c.batcher.OnRequest = c.met.RenderRequests.Inc
	}
	c.controller = NewController(store, scales, zm, panes, c.batcher, dm, cfg.Logger, cfg.Metrics)
	if cfg.InitialVisible > 0 {
		c.controller.SetInitialVisible(cfg.InitialVisible)
	}
	if cfg.LoadMoreThreshold > 0 {
		c.controller.SetLoadMoreThreshold(cfg.LoadMoreThreshold)
	}

	c.theme = model.Theme{}
	c.resizeSilent(cfg.Width, cfg.Height, cfg.Padding)
	return c
}

func (c *Chart) resizeSilent(w, h float64, p model.Padding) {
	// Size before padding: SetPadding relayouts, which needs a surface.
	if err := c.renderer.Resize(w, h); err != nil {
		c.log.Warn("initial size rejected", slog.Any("error", err))
	}
	if err := c.renderer.SetPadding(p); err != nil {
		c.log.Warn("initial padding rejected", slog.Any("error", err))
	}
}

// Initialize loads the first historical page, registers the realtime sink
// and renders the first frame.
func (c *Chart) Initialize(ctx context.Context) error {
	if err := c.controller.LoadInitial(ctx); err != nil {
		return fmt.Errorf("chart: initial load: %w", err)
	}
	c.batcher.RequestRender()
	return nil
}

// TimeView returns the shared time scale view for constructing studies.
func (c *Chart) TimeView() scale.TimeView { return c.scales.TimeView() }

// PriceView returns the shared price scale view for constructing overlays.
func (c *Chart) PriceView() scale.PriceView { return c.scales.PriceView() }

// AddOverlayStudy attaches a study to the main pane, sharing the common
// price scale. The study is seeded with the current dataset.
func (c *Chart) AddOverlayStudy(s study.Study) {
	c.panes.Main().AddOverlay(s)
	s.ResetCandles(c.store.All())
	c.batcher.RequestRender()
}

// CreateSubPane adds an indicator sub-pane. The primary study must own its
// Y scale; heightPercent is its share of the chart height. Layout errors
// (heights consuming the whole chart) surface here.
func (c *Chart) CreateSubPane(id string, primary study.Study, heightPercent float64, others ...study.Study) error {
	if _, exists := c.panes.Sub(id); exists {
		return fmt.Errorf("chart: sub-pane %q already exists", id)
	}
	p, err := pane.NewSub(id, primary, heightPercent, others...)
	if err != nil {
		return err
	}
	c.panes.AddSub(p)
	if err := c.renderer.Relayout(); err != nil {
		// Roll back so the existing panes keep a valid layout.
		c.panes.RemoveSub(id)
		c.renderer.Relayout()
		return err
	}
	// Seed the new pane's studies with the existing dataset.
	p.Broadcast(func(s study.Study) model.DomainUpdate {
		return s.ResetCandles(c.store.All())
	})
	c.batcher.RequestRender()
	return nil
}

// UpdateTheme stores the new theme and re-renders. The engine never
// interprets colors; the compositor reads them.
func (c *Chart) UpdateTheme(t model.Theme) {
	c.theme = t
	c.panes.MarkAllDirty()
	c.batcher.RequestRender()
}

// Theme returns the current theme.
func (c *Chart) Theme() model.Theme { return c.theme }

// Resize updates the surface size, relayouts and re-renders.
func (c *Chart) Resize(width, height float64) error {
	if err := c.renderer.Resize(width, height); err != nil {
		return err
	}
	c.controller.RecalculatePriceScales()
	return nil
}

// UpdatePadding updates the outer padding, relayouts and re-renders.
func (c *Chart) UpdatePadding(p model.Padding) error {
	if err := c.renderer.SetPadding(p); err != nil {
		return err
	}
	c.controller.RecalculatePriceScales()
	return nil
}

// ZoomIn zooms toward the rightmost visible candle.
func (c *Chart) ZoomIn(ctx context.Context, factor float64) {
	c.zoom.ZoomIn(factor)
	c.controller.AfterNavigation(ctx)
}

// ZoomOut zooms away from the rightmost visible candle.
func (c *Chart) ZoomOut(ctx context.Context, factor float64) {
	c.zoom.ZoomOut(factor)
	c.controller.AfterNavigation(ctx)
}

// Pan shifts the view by deltaCandles (positive = newer). Panning near the
// dataset start triggers a historical page load, hence the context.
func (c *Chart) Pan(ctx context.Context, deltaCandles float64) {
	c.zoom.Pan(deltaCandles)
	c.controller.AfterNavigation(ctx)
}

// ResetZoom shows the full dataset.
func (c *Chart) ResetZoom(ctx context.Context) {
	c.zoom.ResetZoom()
	c.controller.AfterNavigation(ctx)
}

// GetZoomLevel returns visible/total as a percentage.
func (c *Chart) GetZoomLevel() float64 { return c.zoom.ZoomLevel() }

// CanZoomIn reports whether further zooming in is possible.
func (c *Chart) CanZoomIn() bool { return c.zoom.CanZoomIn() }

// CanZoomOut reports whether further zooming out is possible.
func (c *Chart) CanZoomOut() bool { return c.zoom.CanZoomOut() }

// CanPanLeft reports whether older candles exist left of the view.
func (c *Chart) CanPanLeft() bool { return c.zoom.CanPanLeft() }

// CanPanRight reports whether newer candles exist right of the view.
func (c *Chart) CanPanRight() bool { return c.zoom.CanPanRight() }

// GetVisibleIndices returns the fractional visible window.
func (c *Chart) GetVisibleIndices() (start, end float64) {
	return c.scales.VisibleIndices()
}

// GetBoxWidth returns the pixel width of one candle slot.
func (c *Chart) GetBoxWidth() float64 { return c.scales.BoxWidth() }

// RequestRender schedules a coalesced render.
func (c *Chart) RequestRender() { c.batcher.RequestRender() }

// Flush draws a frame if one was requested since the last flush. Hosts call
// this once per tick.
func (c *Chart) Flush() {
	if c.destroyed {
		return
	}
	c.batcher.Flush()
}

// Store exposes the candle store for hosts that feed data directly.
func (c *Chart) Store() *series.Store { return c.store }

// Destroy stops the chart from rendering. Realtime candles arriving after
// Destroy are ignored.
func (c *Chart) Destroy() {
	c.destroyed = true
	c.controller.Stop()
	c.store.SetOnChange(nil)
	c.log.Info("chart destroyed")
}
