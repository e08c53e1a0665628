package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neonx-web/alerts"
	"neonx-web/api"
	"neonx-web/bot"
	"neonx-web/cache"
	"neonx-web/community"
	"neonx-web/config"
	"neonx-web/countdown"
	"neonx-web/database"
	"neonx-web/feed"
	"neonx-web/models"
	"neonx-web/notifier"
	"neonx-web/ohlc"
	"neonx-web/series"
	"neonx-web/websocket"

	"github.com/robfig/cron/v3"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := "config.yaml"
	if v := os.Getenv("NEONX_CONFIG"); v != "" {
		configPath = v
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.NewStore(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize database: %v", err)
	}
	defer db.Close()

	prices := newPriceCache(ctx, cfg.Redis)
	defer prices.Close()

	timeframes, err := series.NewTimeframes(cfg.Timeframes)
	if err != nil {
		log.Fatalf("[FATAL] Invalid timeframes: %v", err)
	}
	rnd := series.NewLockedSource(cfg.Feed.Seed)

	// Initialize WebSocket server for frontend
	wsServer := websocket.NewWebSocketServer(cfg.Server.AllowedOrigins)
	wsServer.Start()
	defer wsServer.Stop()

	// Live feed fans out to the frontend, the candle aggregator and the price cache
	periods, err := cfg.PeriodSeconds()
	if err != nil {
		log.Fatalf("[FATAL] Invalid OHLC periods: %v", err)
	}
	candles := ohlc.NewGenerator(periods)
	log.Printf("[INFO] Aggregating candles for periods %v (seconds)", candles.Periods())
	tracker := cache.NewTracker(prices)

	liveFeed, err := feed.NewSynthetic(feed.Config{
		Symbol:   cfg.Feed.Symbol,
		MinPrice: cfg.Feed.MinPrice,
		MaxPrice: cfg.Feed.MaxPrice,
		Interval: cfg.Feed.Interval,
	}, rnd)
	if err != nil {
		log.Fatalf("[FATAL] Failed to create feed: %v", err)
	}
	liveFeed.AddHandler(wsServer.BroadcastTick)
	liveFeed.AddHandler(func(tick models.Tick) {
		saveCandles(ctx, db, candles.ProcessTick(tick))
	})
	liveFeed.AddHandler(func(tick models.Tick) {
		tracker.Observe(ctx, tick)
	})

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Alerts.FlushCron, func() {
		saveCandles(ctx, db, candles.Flush(time.Now()))
	}); err != nil {
		log.Fatalf("[FATAL] Invalid flush schedule %q: %v", cfg.Alerts.FlushCron, err)
	}

	// Countdown publishes to the frontend and, when a bot is configured, the launch channel
	sinks := []countdown.Sink{wsServer}

	manager := alerts.NewManager(db)
	var tg *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tg = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sinks = append(sinks, bot.NewLaunchAnnouncer(ctx, cfg.Telegram.ChatID, tg))

		watcher := bot.NewWatcher(cfg.Feed.Symbol, prices, manager, tg)
		if _, err := scheduler.AddFunc(cfg.Alerts.CheckCron, func() {
			watcher.Run(ctx)
		}); err != nil {
			log.Fatalf("[FATAL] Invalid alert schedule %q: %v", cfg.Alerts.CheckCron, err)
		}
	} else {
		log.Println("[INFO] TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	target, err := cfg.Countdown.TargetFrom(time.Now())
	if err != nil {
		log.Fatalf("[FATAL] Invalid countdown: %v", err)
	}
	runner := countdown.NewRunner(target, countdown.SystemClock, countdown.SinkFunc(func(p models.CountdownParts) {
		for _, s := range sinks {
			s.SetCountdown(p)
		}
	}))
	if err := runner.Start(); err != nil {
		log.Fatalf("[FATAL] Failed to start countdown: %v", err)
	}
	defer runner.Stop()

	if tg != nil {
		router := &bot.Router{
			Symbol:       cfg.Feed.Symbol,
			TokenAddress: cfg.Token.Address,
			Prices:       prices,
			Alerts:       manager,
			Sender:       tg,
			Countdown:    runner.Current,
			Community:    community.NewManager(db),
			Links:        cfg.Links,
		}
		go tg.StartPolling(ctx, router.Handle)
		log.Println("[INFO] Telegram bot polling started")

		if cfg.Telegram.ChatID != "" {
			if err := tg.Send(ctx, "🚀 NeonX Bot started!"); err != nil {
				log.Printf("[WARN] startup notification failed: %v", err)
			}
		}
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	go func() {
		if err := liveFeed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] feed stopped: %v", err)
		}
	}()

	// Initialize HTTP handler
	h := &api.Handler{
		Symbol:       cfg.Feed.Symbol,
		TokenAddress: cfg.Token.Address,
		Timeframes:   timeframes,
		Random:       rnd,
		Candles:      db,
		Open:         candles,
		Prices:       prices,
		Countdown:    runner,
		DB:           db,
		Clients:      wsServer.GetClientCount,
		Links:        cfg.Links,
	}
	mux := http.NewServeMux()
	h.Register(mux, wsServer.HandleWebSocket)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Printf("[INFO] Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[INFO] Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] HTTP shutdown: %v", err)
	}

	// Persist whatever candles are still open
	saveCandles(shutdownCtx, db, candles.Flush(time.Now().Add(24*time.Hour)))
	log.Printf("[INFO] Stopped with last price %s", series.FormatPrice(liveFeed.Price()))
}

// newPriceCache uses Redis when an address is configured and reachable.
func newPriceCache(ctx context.Context, cfg config.Redis) cache.PriceCache {
	if cfg.Addr == "" {
		return cache.NewMemory(cfg.TTL)
	}
	rc := cache.NewRedis(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Printf("[WARN] Redis at %s unreachable, using in-memory cache: %v", cfg.Addr, err)
		rc.Close()
		return cache.NewMemory(cfg.TTL)
	}
	log.Printf("[INFO] Using Redis price cache at %s", cfg.Addr)
	return rc
}

func saveCandles(ctx context.Context, db *database.Store, closed []models.CandleStick) {
	for _, c := range closed {
		if err := db.SaveCandle(ctx, c); err != nil {
			log.Printf("[ERROR] Failed to save candle %s/%ds: %v", c.Symbol, c.Period, err)
		}
	}
}
