package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	jwttoken "podium/internal/jwt_token"
	"podium/internal/platform/config"
	"podium/internal/platform/health"
	"podium/internal/platform/httpserver"
	"podium/internal/platform/logger"
	platformmetrics "podium/internal/platform/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
	statsInterval   = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDevSigningKey() && !cfg.IsDev() {
		log.Warn("JWT_SIGNING_KEY is the built-in dev key outside dev", "environment", cfg.Environment)
	}

	log.Info("initializing podium",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"registry_owner", cfg.RegistryOwner,
	)

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	platformMetrics := platformmetrics.New()
	healthHandler := health.New(cfg.Environment)
	deps.registerHealthChecks(healthHandler)

	router := newRouter(routerDeps{
		logger:         log,
		registry:       deps.registry,
		health:         healthHandler,
		tokens:         jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience),
		latency:        platformMetrics,
		requestTimeout: cfg.RequestTimeout,
	})

	srv := httpserver.New(cfg.Addr, router, httpserver.WithRequestTimeout(cfg.RequestTimeout))
	deps.relay.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return platformmetrics.CollectEvery(gctx, statsInterval, func() {
			if err := deps.relay.UpdateMetrics(gctx); err != nil {
				log.Warn("failed to update outbox metrics", "error", err)
			}
			if deps.db != nil {
				platformMetrics.RecordDBStats(deps.db.Stats())
			}
			if deps.redis != nil {
				platformMetrics.RecordRedisPoolStats(deps.redis.PoolStats())
			}
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := deps.relay.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
