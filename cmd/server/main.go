package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/analytics"
	"github.com/patrickwarner/adreward/internal/api"
	"github.com/patrickwarner/adreward/internal/cache"
	"github.com/patrickwarner/adreward/internal/config"
	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/logic/progress"
	"github.com/patrickwarner/adreward/internal/logic/ratelimit"
	"github.com/patrickwarner/adreward/internal/logic/selectors"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
	"github.com/patrickwarner/adreward/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracing, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TracingEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdownTracing()
	}

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	contentStore := models.NewInMemoryContentStore()
	loaded, skipped, err := db.ReloadCatalog(ctx, pg, contentStore)
	if err != nil {
		return fmt.Errorf("populate content store: %w", err)
	}
	logger.Info("content catalog loaded", zap.Int("loaded", loaded), zap.Int("skipped", skipped))

	store, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	analyticsSvc, err := analytics.InitClickHouse(cfg.ClickHouseDSN, cfg.CHMaxOpenConns, cfg.CHMaxIdleConns, cfg.CHConnMaxLifetime, cfg.CHConnMaxIdleTime, metricsRegistry)
	if err != nil {
		return fmt.Errorf("failed to connect clickhouse: %w", err)
	}
	defer analyticsSvc.Close()

	ledgerClient := ledger.NewHTTPClient(cfg.LedgerURL, cfg.LedgerReadTimeout, logger, metricsRegistry)
	aggregateCache := cache.NewRedisCache(store, cfg.CacheTTL, metricsRegistry, logger)
	cachedLedger := ledger.NewCached(ledgerClient, ledgerClient, aggregateCache, logger)

	selector, err := selectors.New(cfg.CampaignSelector, nil)
	if err != nil {
		return fmt.Errorf("campaign selector: %w", err)
	}

	secret := cfg.ClaimSecret
	if secret == "" {
		// claim keys stay unique per slot; the ledger cannot verify them across restarts
		secret = uuid.NewString()
		logger.Warn("CLAIM_SECRET not set, using an ephemeral secret")
	}

	sessions := session.NewManager(session.Config{
		TickInterval: cfg.ProgressTickInterval,
		Step:         cfg.ProgressStep,
		DefaultCaps: models.Caps{
			MaxAdViewsPerDay:        cfg.DefaultMaxAdViewsPerDay,
			MaxAdsPerYoutubeSession: cfg.DefaultMaxAdsPerYoutubeSession,
		},
		ClaimSecret: []byte(secret),
		IdleTTL:     cfg.SessionIdleTTL,
	}, session.Deps{
		Ledger:      cachedLedger,
		Selector:    selector,
		Content:     contentStore,
		Invalidator: cachedLedger,
		Scheduler:   progress.NewTickerScheduler(),
		Executor:    session.GoExecutor,
		Analytics:   analyticsSvc,
		Metrics:     metricsRegistry,
		Logger:      logger,
		Tracer:      observability.Tracer("session"),
	})
	defer sessions.Shutdown()

	limiter := ratelimit.NewStartLimiter(ratelimit.Config{
		Capacity:   cfg.StartLimitCapacity,
		RefillRate: cfg.StartLimitRefillRate,
		Enabled:    cfg.StartLimitEnabled,
	}, metricsRegistry)

	srvDeps := api.NewServer(logger, sessions, cachedLedger, cachedLedger, pg, contentStore, limiter, metricsRegistry)
	srvDeps.Health = ledgerClient

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(srvDeps.Router(), cfg.ServiceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Session server running", zap.String("addr", addr), zap.String("ledger", cfg.LedgerURL))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	if cfg.SessionReapInterval > 0 {
		go sessions.RunReaper(ctx, cfg.SessionReapInterval)
	}

	if cfg.ReloadInterval > 0 {
		ticker := time.NewTicker(cfg.ReloadInterval)
		go func() {
			for {
				select {
				case <-ticker.C:
					if err := srvDeps.Reload(ctx); err != nil {
						logger.Error("auto reload", zap.Error(err))
					}
					limiter.Prune(cfg.ReloadInterval * 10)
				case <-ctx.Done():
					ticker.Stop()
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
