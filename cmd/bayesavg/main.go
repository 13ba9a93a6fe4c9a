// Command bayesavg serves stored fits, ensembles and model-averaged posteriors over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bayesavg/internal/config"
	dbRedis "github.com/kailas-cloud/bayesavg/internal/db/redis"
	logpkg "github.com/kailas-cloud/bayesavg/internal/logger"
	"github.com/kailas-cloud/bayesavg/internal/metrics"
	ensemblerepo "github.com/kailas-cloud/bayesavg/internal/repository/ensemble"
	fitrepo "github.com/kailas-cloud/bayesavg/internal/repository/fit"
	"github.com/kailas-cloud/bayesavg/internal/repository/fitcache"
	"github.com/kailas-cloud/bayesavg/internal/simulation"
	chiTransport "github.com/kailas-cloud/bayesavg/internal/transport/chi"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	ensembleuc "github.com/kailas-cloud/bayesavg/internal/usecase/ensemble"
	fituc "github.com/kailas-cloud/bayesavg/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
	"github.com/kailas-cloud/bayesavg/internal/version"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bayesavg: load config:", err)
		os.Exit(1)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bayesavg: create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env, cfg, logger); err != nil {
		logger.Error("bayesavg exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run wires the service graph and serves until ctx is cancelled.
func run(ctx context.Context, env string, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting bayesavg API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("simulation_draws", cfg.Averaging.SimulationDraws),
		zap.Int("fit_cache_size", *cfg.Cache.FitCacheSize),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		ClientName: cfg.Database.ClientName,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	metrics.RegisterAveragingMetrics()
	metrics.RegisterHTTPMetrics()

	fits, err := fitcache.New(
		fitrepo.New(store, cfg.Storage.KeyPrefix),
		*cfg.Cache.FitCacheSize,
		metrics.FitCacheTotal,
	)
	if err != nil {
		return fmt.Errorf("create fit cache: %w", err)
	}
	ensembles := ensemblerepo.New(store, cfg.Storage.KeyPrefix)

	gaussian := simulation.NewGaussian()
	avgCfg := cfg.Averaging.Domain()

	server := chiTransport.NewServer(
		fituc.New(fits),
		ensembleuc.New(ensembles, fits, avgCfg.MaxModels),
		averaginguc.New(fits, ensembles, simulation.NewInstrumented(gaussian, logger), avgCfg),
		healthuc.New(store, gaussian),
		logger,
		int64(cfg.HTTP.MaxBodyMB)<<20,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      newRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
