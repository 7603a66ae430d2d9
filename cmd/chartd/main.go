// chartd serves an interactive candlestick chart over websockets: it owns a
// chart engine, feeds it candles from a configurable source (simulator,
// sqlite, websocket or redis) and broadcasts rendered frames to every
// connected client, applying their zoom/pan/resize commands.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chartenginev1/config"
	"chartenginev1/internal/chart"
	"chartenginev1/internal/feed"
	"chartenginev1/internal/gateway"
	"chartenginev1/internal/logger"
	"chartenginev1/internal/metrics"
	"chartenginev1/internal/model"
	"chartenginev1/internal/ringbuf"
	sqlitestore "chartenginev1/internal/store/sqlite"
	"chartenginev1/internal/study"
)

// frameInterval is the engine tick: commands, candles and the coalesced
// render are all processed at this cadence.
const frameInterval = 33 * time.Millisecond

// engineSource adapts any historical loader into the DataManager the engine
// sees. Realtime candles do NOT flow through it: the feed pushes into the
// ring buffer and the main loop delivers them on the engine goroutine, so
// the engine never sees a callback from a foreign goroutine.
type engineSource struct {
	historical interface {
		LoadHistorical(ctx context.Context) (model.HistoricalBatch, error)
	}
	sink func(model.Candle)
}

func (s *engineSource) LoadHistorical(ctx context.Context) (model.HistoricalBatch, error) {
	return s.historical.LoadHistorical(ctx)
}

func (s *engineSource) OnRealtimeUpdate(fn func(model.Candle)) { s.sink = fn }

func main() {
	cfg := config.Load()
	slg := logger.Init("chartd", logger.ParseLevel(cfg.LogLevel))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[chartd] starting... source=%s symbol=%s", cfg.DataSource, cfg.Symbol)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Metrics & health ----
	met, reg := metrics.New()
	health := &metrics.Health{StartedAt: time.Now(), FeedOK: true}
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, reg, health)
	metricsSrv.Start()

	// ---- Feed → engine hand-off ----
	ring := ringbuf.New[model.Candle](4096)
	ingest := func(c model.Candle) {
		if !ring.Push(c) {
			met.DroppedCandles.Inc()
		}
	}

	// ---- Data source selection ----
	var sqlStore *sqlitestore.Store
	openStore := func() *sqlitestore.Store {
		if sqlStore != nil {
			return sqlStore
		}
		os.MkdirAll("data", 0o755)
		st, err := sqlitestore.Open(sqlitestore.Config{DBPath: cfg.SQLitePath, Symbol: cfg.Symbol})
		if err != nil {
			log.Fatalf("[chartd] sqlite init failed: %v", err)
		}
		st.OnCommit = func(d time.Duration, n int) {
			met.SQLiteCommitDur.Observe(d.Seconds())
		}
		sqlStore = st
		return st
	}

	src := &engineSource{}
	switch cfg.DataSource {
	case "sim":
		sim := feed.NewSimulator(feed.SimulatorConfig{
			Interval: time.Duration(cfg.CandleIntervalS) * time.Second,
			PageSize: cfg.HistoryPageSize,
		})
		sim.OnRealtimeUpdate(ingest)
		go sim.Run(ctx, time.Second)
		src.historical = sim

	case "sqlite":
		src.historical = feed.NewSQLiteSource(openStore(), cfg.HistoryPageSize)

	case "ws":
		wsf, err := feed.NewWSFeed(feed.WSFeedConfig{URL: cfg.WSFeedURL})
		if err != nil {
			log.Fatalf("[chartd] ws feed init failed: %v", err)
		}
		wsf.OnReconnect = func() { met.FeedReconnects.Inc() }
		wsf.OnRealtimeUpdate(ingest)
		go func() {
			if err := wsf.Start(ctx); err != nil {
				log.Printf("[chartd] ws feed stopped: %v", err)
			}
		}()
		src.historical = feed.NewSQLiteSource(openStore(), cfg.HistoryPageSize)

	case "redis":
		rf, err := feed.NewRedisFeed(ctx, feed.RedisFeedConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			log.Fatalf("[chartd] redis feed init failed: %v", err)
		}
		defer rf.Close()
		rf.OnRealtimeUpdate(ingest)
		go func() {
			if err := rf.Start(ctx); err != nil {
				log.Printf("[chartd] redis feed stopped: %v", err)
			}
		}()
		src.historical = feed.NewSQLiteSource(openStore(), cfg.HistoryPageSize)

	default:
		log.Fatalf("[chartd] unknown DATA_SOURCE %q", cfg.DataSource)
	}

	// ---- Optional sqlite tee of live candles ----
	var persistCh chan model.Candle
	if cfg.PersistCandles {
		persistCh = make(chan model.Candle, 1024)
		go openStore().RunWriter(ctx, persistCh)
	}
	if sqlStore != nil {
		defer sqlStore.Close()
	}

	// ---- Gateway ----
	hub := gateway.NewHub()
	hub.OnClientCount = func(n int) { met.GatewayClients.Set(float64(n)) }

	comp := gateway.NewFrameCompositor()
	comp.OnFrame = hub.BroadcastFrame
	comp.OnEncode = func(d time.Duration, bytes int) {
		met.FrameEncodeDur.Observe(d.Seconds())
		met.FrameBytesTotal.Add(float64(bytes))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("[chartd] gateway listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[chartd] gateway server error: %v", err)
		}
	}()

	// ---- Chart engine ----
	ch := chart.New(src, comp, chart.Config{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Padding: model.Padding{Top: 16, Right: 64, Bottom: 32, Left: 16},
		Logger:  slg,
		Metrics: met,
	})
	if err := ch.Initialize(ctx); err != nil {
		log.Fatalf("[chartd] chart init failed: %v", err)
	}

	// Default layout: SMA(20) overlay plus a volume sub-pane.
	ch.AddOverlayStudy(study.NewSMA(ch.TimeView(), ch.PriceView(), 20))
	if err := ch.CreateSubPane("volume", study.NewVolumeStudy(ch.TimeView()), 0.2); err != nil {
		log.Printf("[chartd] volume pane rejected: %v", err)
	}

	log.Println("[chartd] engine ready, entering frame loop")

	// ---- Frame loop (engine goroutine) ----
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Println("[chartd] shutdown signal received, cleaning up...")
			cancel()
			ch.Destroy()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			httpSrv.Shutdown(shutdownCtx)
			metricsSrv.Stop(shutdownCtx)
			shutdownCancel()

			log.Println("[chartd] shutdown complete.")
			return

		case <-ticker.C:
			// Deliver buffered candles on the engine goroutine.
			for {
				c, ok := ring.Pop()
				if !ok {
					break
				}
				if src.sink != nil {
					src.sink(c)
				}
				met.CandlesIngested.Inc()
				health.LastCandleAt = c.TS
				if persistCh != nil {
					select {
					case persistCh <- c:
					default:
					}
				}
			}

			// Apply queued client commands.
			for applied := 0; applied < 32; applied++ {
				select {
				case cmd := <-hub.Commands:
					applyCommand(ctx, ch, slg, cmd)
				default:
					applied = 32
				}
			}

			health.Clients = hub.ClientCount()
			ch.Flush()
			comp.EndFrame()
		}
	}
}

// applyCommand executes one client command on the engine goroutine.
func applyCommand(ctx context.Context, ch *chart.Chart, slg *slog.Logger, cmd gateway.Command) {
	factor := cmd.Factor
	if factor <= 1 {
		factor = 2
	}
	switch cmd.Type {
	case "zoom_in":
		ch.ZoomIn(ctx, factor)
	case "zoom_out":
		ch.ZoomOut(ctx, factor)
	case "pan":
		ch.Pan(ctx, float64(cmd.Offset))
	case "reset_zoom":
		ch.ResetZoom(ctx)
	case "resize":
		if cmd.Width > 0 && cmd.Height > 0 {
			if err := ch.Resize(cmd.Width, cmd.Height); err != nil {
				slg.Warn("resize rejected", slog.Any("error", err))
			}
		}
	case "add_study":
		addStudy(ch, slg, cmd)
	default:
		slg.Debug("unknown command", slog.String("type", cmd.Type))
	}
}

func addStudy(ch *chart.Chart, slg *slog.Logger, cmd gateway.Command) {
	period := cmd.Period
	if period <= 0 {
		period = 14
	}
	switch cmd.Study {
	case "sma":
		ch.AddOverlayStudy(study.NewSMA(ch.TimeView(), ch.PriceView(), period))
	case "ema":
		ch.AddOverlayStudy(study.NewEMA(ch.TimeView(), ch.PriceView(), period))
	case "bollinger":
		ch.AddOverlayStudy(study.NewBollinger(ch.TimeView(), ch.PriceView(), period, 2))
	case "rsi":
		if err := ch.CreateSubPane("rsi", study.NewRSI(ch.TimeView(), period), 0.2); err != nil {
			slg.Warn("rsi pane rejected", slog.Any("error", err))
		}
	case "volume":
		if err := ch.CreateSubPane("volume", study.NewVolumeStudy(ch.TimeView()), 0.2); err != nil {
			slg.Warn("volume pane rejected", slog.Any("error", err))
		}
	default:
		slg.Debug("unknown study", slog.String("study", cmd.Study))
	}
}
