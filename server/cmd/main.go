package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/touka-aoi/inbox-kingdoms/application/calculator"
	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/resolution"
	"github.com/touka-aoi/inbox-kingdoms/application/scoring"
	"github.com/touka-aoi/inbox-kingdoms/application/service"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
	"github.com/touka-aoi/inbox-kingdoms/application/state/memory"
	redisstore "github.com/touka-aoi/inbox-kingdoms/application/state/redis"
	"github.com/touka-aoi/inbox-kingdoms/internal/telemetry"
	"github.com/touka-aoi/inbox-kingdoms/server"
	adapterkafka "github.com/touka-aoi/inbox-kingdoms/server/adapter/kafka"
	"github.com/touka-aoi/inbox-kingdoms/server/domain"
	"github.com/touka-aoi/inbox-kingdoms/server/handler"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

func main() {
	// .env は任意
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: utils.GetEnvDefault("OTEL_SERVICE_NAME", "inbox-kingdoms"),
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:    utils.GetEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()
	logger := tel.Logger
	slog.SetDefault(logger)

	cat, err := catalog.Load(os.Getenv("CATALOG_PATH"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	calc := calculator.New(cat)
	orchestrator := resolution.New(calc,
		resolution.WithLogger(logger),
		resolution.WithSpamTraps(utils.GetEnvBool("SPAM_TRAPS_ENABLED", true)),
	)

	history, closeHistory, err := newHistoryStore(ctx)
	if err != nil {
		return err
	}
	defer closeHistory()

	hub := domain.NewHub(64, logger)
	publishers := state.Publishers{hub}
	if brokers := utils.GetEnvList("KAFKA_BROKERS"); len(brokers) > 0 {
		kp, err := adapterkafka.NewPublisher(brokers, os.Getenv("KAFKA_TOPIC"),
			adapterkafka.TopicsFromEnv(state.EventRoundResolved, state.EventGameFinalized))
		if err != nil {
			return fmt.Errorf("create kafka publisher: %w", err)
		}
		defer kp.Close()
		publishers = append(publishers, kp)
		logger.InfoContext(ctx, "kafka publisher enabled", "brokers", brokers)
	}

	metrics, err := telemetry.NewMetrics(tel.MeterProvider)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	svc, err := service.NewResolutionService(service.Dependencies{
		Resolver:  orchestrator,
		Scorer:    scoring.New(cat),
		History:   history,
		Publisher: publishers,
		Metrics:   metrics,
		Clock:     systemClock{},
		Validator: service.SimpleValidator{Catalog: cat},
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var auth *handler.Authenticator
	if secret := os.Getenv("RESOLVER_JWT_SECRET"); secret != "" {
		if auth, err = handler.NewAuthenticator(secret); err != nil {
			return err
		}
	} else {
		logger.WarnContext(ctx, "RESOLVER_JWT_SECRET is not set, write endpoints are unauthenticated")
	}

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	s := server.NewServer(fmt.Sprintf("%s:%s", addr, port), server.Route(server.RouteConfig{
		Service:        svc,
		Hub:            hub,
		Auth:           auth,
		Logger:         logger,
		PingInterval:   15 * time.Second,
		OriginPatterns: utils.GetEnvList("FEED_ORIGINS"),
	}))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.InfoContext(ctx, "server listening", "addr", s.Addr())
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.InfoContext(ctx, "shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "graceful shutdown failed", "error", err)
			if err := s.Close(); err != nil {
				logger.ErrorContext(shutdownCtx, "forced close failed", "error", err)
			}
		}
		logger.InfoContext(shutdownCtx, "server shutdown complete")
		return nil
	})
	return eg.Wait()
}

// newHistoryStore は REDIS_URL があれば Redis を、なければプロセス内メモリを使う。
func newHistoryStore(ctx context.Context) (state.HistoryStore, func(), error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		slog.InfoContext(ctx, "using in-memory history store")
		return memory.NewConcurrentStore(nil), func() {}, nil
	}
	client, err := redisstore.Connect(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	ttl, err := time.ParseDuration(utils.GetEnvDefault("REDIS_HISTORY_TTL", "24h"))
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("parse REDIS_HISTORY_TTL: %w", err)
	}
	slog.InfoContext(ctx, "using redis history store")
	return redisstore.NewStore(client, ttl), func() { _ = client.Close() }, nil
}
