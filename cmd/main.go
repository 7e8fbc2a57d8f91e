package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/pairrank/internal/adapters/http/api"
	"github.com/okian/pairrank/internal/adapters/repository"
	"github.com/okian/pairrank/internal/adapters/sessioncache"
	app "github.com/okian/pairrank/internal/app"
	"github.com/okian/pairrank/internal/config"
	"github.com/okian/pairrank/internal/domain/ranking"
	"github.com/okian/pairrank/internal/health"
	"github.com/okian/pairrank/pkg/logger"
	"github.com/okian/pairrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Durable store
	store, err := repository.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.String("db_path", cfg.DBPath), logger.Error(err))
		return
	}
	log.Info(ctx, "using sqlite store", logger.String("db_path", cfg.DBPath))

	// Session cache
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	var cache sessioncache.Cache
	var redisClient *redis.Client
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		cache = sessioncache.NewRedisCache(redisClient, sessioncache.WithRedisTTL(sessionTTL))
		log.Info(ctx, "using redis session cache", logger.String("redis_addr", cfg.RedisAddr))
	default:
		cache = sessioncache.NewInMemoryCache(
			sessioncache.WithTTL(sessionTTL),
			sessioncache.WithSweepInterval(time.Duration(cfg.SweepIntervalSeconds)*time.Second),
		)
		log.Info(ctx, "using in-memory session cache")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithCache(cache),
		app.WithEngine(ranking.New(ranking.WithMaxComparisons(cfg.MaxComparisons))),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Refresh service-level gauges in the background
	go startServiceMetricsUpdater(ctx, svc)

	// Webhook signature verification
	var serverOpts []api.ServerOption
	if cfg.PublicKey != "" {
		key, err := api.ParsePublicKey(cfg.PublicKey)
		if err != nil {
			log.Error(ctx, "invalid public key", logger.Error(err))
			return
		}
		serverOpts = append(serverOpts, api.WithPublicKey(key))
	} else {
		log.Warn(ctx, "no public key configured; interaction signatures will NOT be verified")
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, api.StatsFunc(func(ctx context.Context) any {
		return svc.GetStats(ctx)
	}), serverOpts...)
	apiServer.AddHealthChecker("database", health.NewDBChecker(store.DB()))
	if redisClient != nil {
		apiServer.AddHealthChecker("redis", health.NewRedisChecker(redisClient))
	}
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes the session and catalog gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats(ctx)
			metrics.UpdateActiveSessions(int(stats.ActiveSessions))
			metrics.UpdateItemsTracked(stats.ItemsTracked)
		}
	}
}
