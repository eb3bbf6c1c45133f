package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/touka-aoi/inbox-kingdoms/server/domain"
	"github.com/touka-aoi/inbox-kingdoms/server/handler"
)

// RouteConfig はルーティングに必要な依存。Auth が nil のときは認証なしで書き込みAPIを公開する。
type RouteConfig struct {
	Service        handler.ResolutionService
	Hub            *domain.Hub
	Auth           *handler.Authenticator
	Logger         *slog.Logger
	PingInterval   time.Duration
	OriginPatterns []string
}

func Route(cfg RouteConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rounds := handler.NewRoundsHandler(cfg.Service, logger)
	if len(cfg.OriginPatterns) == 0 {
		logger.Warn("FEED_ORIGINS is not set, feed accepts websocket connections from any origin")
	}

	r := chi.NewRouter()
	r.Use(handler.RequestID)
	r.Use(handler.Recover(logger))
	r.Use(handler.Logging(logger))

	r.Get("/healthz", handler.NewHealthHandler())
	r.Route("/rooms/{room}", func(r chi.Router) {
		r.Get("/rounds", rounds.History)
		r.Method(http.MethodGet, "/feed", handler.NewFeedHandler(cfg.Hub, cfg.PingInterval, cfg.OriginPatterns))

		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(cfg.Auth.Middleware)
			}
			r.Post("/rounds", rounds.Resolve)
			r.Post("/final", rounds.Finalize)
		})
	})
	return otelhttp.NewHandler(r, "inbox-kingdoms")
}
