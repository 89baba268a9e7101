package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "podium/internal/jwt_token"
	"podium/internal/platform/health"
	"podium/internal/registry/handler"
	authmw "podium/pkg/platform/middleware/auth"
	"podium/pkg/platform/middleware/metadata"
	request "podium/pkg/platform/middleware/request"
	"podium/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	logger         *slog.Logger
	registry       handler.Service
	health         *health.Handler
	tokens         *jwttoken.JWTService
	latency        request.LatencyObserver
	requestTimeout time.Duration
}

// newRouter assembles the middleware chain and mounts every HTTP surface.
func newRouter(d routerDeps) http.Handler {
	requireCaller := authmw.RequireCaller(jwttoken.NewJWTServiceAdapter(d.tokens), d.logger)

	router := chi.NewRouter()
	router.Use(request.Recovery(d.logger))
	router.Use(request.RequestID)
	router.Use(request.Logger(d.logger))
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(request.Timeout(d.requestTimeout))
	router.Use(request.LatencyMiddleware(d.latency))

	router.Handle("/metrics", promhttp.Handler())
	d.health.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		handler.New(d.registry, d.logger, requireCaller).Register(r)
	})
	return router
}
