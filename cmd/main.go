package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/okian/dodgestorm/internal/adapters/http/api"
	"github.com/okian/dodgestorm/internal/adapters/mq/broadcaster"
	"github.com/okian/dodgestorm/internal/adapters/ws"
	app "github.com/okian/dodgestorm/internal/app"
	"github.com/okian/dodgestorm/internal/config"
	"github.com/okian/dodgestorm/pkg/logger"
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
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

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
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithJWTSecret(cfg.JWTSecret),
		app.WithTokenTTL(time.Duration(cfg.TokenTTLMinutes) * time.Minute),
		app.WithPlausibilityBounds(cfg.RateCap, cfg.RateBuffer),
		app.WithGameMode(cfg.GameMode),
		app.WithBroadcastLimit(cfg.BroadcastLimit),
		app.WithQueueSize(cfg.QueueSize),
		app.WithSendTimeout(time.Duration(cfg.WSSendTimeoutMillis) * time.Millisecond),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		opts = append(opts, app.WithRedisClient(client))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Drain ranked snapshots to connected viewers.
	bc := broadcaster.New(svc.Snapshots(), svc.Hub())
	go bc.Run(ctx)

	// Periodic service metrics refresh.
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux, svc)

	// Live leaderboard feed.
	wsHandler := ws.NewHandler(svc.Hub(),
		ws.WithLogger(loggerInstance),
		ws.WithConnOptions(
			ws.WithSendBuffer(cfg.WSSendBuffer),
			ws.WithWriteTimeout(time.Duration(cfg.WSSendTimeoutMillis)*time.Millisecond),
			ws.WithPingInterval(time.Duration(cfg.WSPingIntervalSeconds)*time.Second),
		),
	)
	mux.HandleFunc("/ws/leaderboard", wsHandler.HandleLeaderboard)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := bc.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "broadcaster shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes gauge metrics from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the gauges as a side effect.
			svc.GetStats()
		}
	}
}
