package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oddsfair/slipexchange/internal/adapter/kafka"
	"github.com/oddsfair/slipexchange/internal/adapter/pg"
	"github.com/oddsfair/slipexchange/internal/adapter/rediscache"
	"github.com/oddsfair/slipexchange/internal/client"
	"github.com/oddsfair/slipexchange/internal/config"
	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/engine"
	"github.com/oddsfair/slipexchange/internal/handler"
	"github.com/oddsfair/slipexchange/internal/ledger"
	"github.com/oddsfair/slipexchange/internal/port"
	"github.com/oddsfair/slipexchange/internal/service"
	"github.com/oddsfair/slipexchange/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional integrations: each is skipped when unconfigured.
	var repo port.Repository
	if cfg.PostgresDSN != "" {
		pgRepo, err := pg.NewRepo(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Error("postgres connect failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pgRepo.Close()
		repo = pgRepo
		logger.Info("postgres repository enabled")
	}

	var depthCache port.DepthCache
	if cfg.RedisAddr != "" {
		cache := rediscache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.DepthCacheTTL)
		defer cache.Close()
		depthCache = cache
		logger.Info("redis depth cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	var publisher port.TradePublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("kafka trade publisher enabled", slog.String("topic", cfg.KafkaTopic))
	}

	var risk client.RiskChecker = client.NoopRiskChecker{}
	if cfg.RiskURL != "" {
		risk = client.NewRiskClient(cfg.RiskURL, cfg.RiskTimeout, client.Policy{
			Attempts: cfg.RiskRetryAttempts,
			Backoff:  cfg.RiskRetryBackoff,
		}, logger)
		logger.Info("risk client enabled", slog.String("url", cfg.RiskURL))
	}

	// Stores and domain state.
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	faultStore := store.NewFaultStore()
	sessionStore := store.NewSessionStore()
	suspensionStore := store.NewSuspensionStore()
	slips := domain.NewSlipRegistry()
	lg := ledger.New()

	// Engine.
	books := engine.NewBookManager()
	matcher := engine.NewMatcher(books, lg, orderStore, tradeStore, faultStore,
		cfg.FeeRateBP, cfg.TradeRetryAttempts, cfg.TradeRetryBackoff)

	// Write-through recorder (persistence, trade stream, cache).
	recorder := service.NewRecorder(repo, publisher, depthCache, lg, slips, logger, cfg.WriteTimeout)

	onExpired := func(order *domain.Order) {
		recorder.OrderChanged(order)
		recorder.InvalidateDepth(order.SlipID)
	}
	expiryMgr := engine.NewExpiryManager(cfg.ExpirationInterval, matcher, onExpired)

	onSessionTrades := func(sess *domain.TradingSession, trades []*domain.Trade) {
		bySlip := make(map[string][]*domain.Trade)
		for _, t := range trades {
			bySlip[t.SlipID] = append(bySlip[t.SlipID], t)
			for _, orderID := range []string{t.BuyOrderID, t.SellOrderID} {
				if o, err := orderStore.Get(orderID); err == nil {
					recorder.OrderChanged(o)
				}
			}
		}
		for slipID, group := range bySlip {
			recorder.TradesExecuted(slipID, group)
		}
	}
	sessionMgr := engine.NewSessionManager(sessionStore, orderStore, matcher, slips,
		suspensionStore, expiryMgr,
		cfg.CollectionDuration, cfg.MaxSuspension, cfg.SessionTick,
		onSessionTrades, onExpired)

	// Reload durable state before serving.
	if repo != nil {
		if err := reload(ctx, repo, slips, lg, matcher, expiryMgr, logger); err != nil {
			logger.Error("startup reload failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Services.
	orderSvc := service.NewOrderService(matcher, expiryMgr, sessionMgr, slips,
		suspensionStore, orderStore, risk, recorder)
	ownershipSvc := service.NewOwnershipService(lg, slips, recorder)
	marketSvc := service.NewMarketService(books, tradeStore, slips, depthCache, logger, 10)
	sessionSvc := service.NewSessionService(sessionMgr, sessionStore)
	suspensionSvc := service.NewSuspensionService(suspensionStore, logger, cfg.SuspensionSweepInterval)

	// Router.
	router := handler.NewRouter(orderSvc, ownershipSvc, marketSvc, sessionSvc, suspensionSvc, logger)

	// Background goroutines.
	expiryMgr.Start(ctx)
	sessionMgr.Start(ctx)
	suspensionSvc.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops tickers).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}

// reload restores slips, ownership, and resting orders from the durable
// store. Sell-side holds are re-placed by RestoreOpenOrder, so the
// in-memory reservation state matches the reloaded book.
func reload(
	ctx context.Context,
	repo port.Repository,
	slips *domain.SlipRegistry,
	lg *ledger.Ledger,
	matcher *engine.Matcher,
	expiryMgr *engine.ExpiryManager,
	logger *slog.Logger,
) error {
	loaded, err := repo.LoadSlips(ctx)
	if err != nil {
		return fmt.Errorf("load slips: %w", err)
	}

	orders := 0
	for _, slip := range loaded {
		if err := slips.Register(slip); err != nil {
			return fmt.Errorf("register slip %s: %w", slip.SlipID, err)
		}

		records, err := repo.LoadOwnership(ctx, slip.SlipID)
		if err != nil {
			return fmt.Errorf("load ownership %s: %w", slip.SlipID, err)
		}
		lg.Load(records)

		open, err := repo.LoadOpenOrders(ctx, slip.SlipID)
		if err != nil {
			return fmt.Errorf("load open orders %s: %w", slip.SlipID, err)
		}
		for _, o := range open {
			if err := matcher.RestoreOpenOrder(o); err != nil {
				logger.Warn("restore order failed, skipping",
					slog.String("order_id", o.OrderID),
					slog.String("error", err.Error()))
				continue
			}
			expiryMgr.Add(o)
			orders++
		}
	}

	logger.Info("state reloaded",
		slog.Int("slips", len(loaded)),
		slog.Int("open_orders", orders))
	return nil
}
