package main

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"podium/internal/platform/config"
	"podium/internal/platform/database"
	"podium/internal/platform/health"
	"podium/internal/platform/kafka/producer"
	redisclient "podium/internal/platform/redis"
	"podium/internal/registry/cache"
	"podium/internal/registry/metrics"
	"podium/internal/registry/publisher"
	"podium/internal/registry/relay"
	"podium/internal/registry/service"
	"podium/internal/registry/store"
	id "podium/pkg/domain"
)

const tracerName = "podium/registry"

type registryStore interface {
	service.Reader
	service.RegistryTx
	relay.OutboxStore
}

// infra owns every connection the registry needs and releases them on close.
type infra struct {
	db       *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
	registry *service.Service
	relay    *relay.Worker
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	owner := id.CallerID(cfg.RegistryOwner)

	st, err := in.buildStore(ctx, cfg, owner, log)
	if err != nil {
		in.close(log)
		return nil, err
	}

	registryMetrics := metrics.New()
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(registryMetrics),
		service.WithTracer(otel.Tracer(tracerName)),
	}

	in.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		in.close(log)
		return nil, err
	}
	if in.redis != nil {
		opts = append(opts, service.WithCache(cache.NewRedis(in.redis.Client, cache.WithTTL(cfg.Redis.CacheTTL))))
		log.Info("athlete cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	in.registry, err = service.New(owner, st, st, opts...)
	if err != nil {
		in.close(log)
		return nil, err
	}

	pub, err := in.buildPublisher(ctx, cfg, log)
	if err != nil {
		in.close(log)
		return nil, err
	}
	in.relay = relay.New(st, pub,
		relay.WithBatchSize(cfg.Relay.BatchSize),
		relay.WithPollInterval(cfg.Relay.PollInterval),
		relay.WithMetrics(registryMetrics),
		relay.WithLogger(log),
	)
	return in, nil
}

func (in *infra) buildStore(ctx context.Context, cfg config.Server, owner id.CallerID, log *slog.Logger) (registryStore, error) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		log.Info("using in-memory registry store")
		return store.NewInMemory(), nil
	}
	in.db = pool

	if err := pool.Migrate(ctx); err != nil {
		return nil, err
	}
	pg := store.NewPostgres(pool.DB())
	if err := pg.EnsureOwner(ctx, owner); err != nil {
		return nil, fmt.Errorf("pin registry owner: %w", err)
	}
	log.Info("using postgres registry store")
	return pg, nil
}

func (in *infra) buildPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (relay.Publisher, error) {
	if cfg.Kafka.Brokers == "" {
		log.Info("kafka not configured, registry notifications go to the log")
		return publisher.NewLog(log), nil
	}

	p, err := producer.New(producer.Config{
		Brokers:         cfg.Kafka.Brokers,
		Acks:            cfg.Kafka.Acks,
		Retries:         cfg.Kafka.Retries,
		DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	in.producer = p
	if err := p.EnsureTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
		return nil, fmt.Errorf("ensure topic %s: %w", cfg.Kafka.Topic, err)
	}
	log.Info("publishing registry notifications to kafka", "topic", cfg.Kafka.Topic)
	return publisher.NewKafka(p, cfg.Kafka.Topic), nil
}

func (in *infra) registerHealthChecks(h *health.Handler) {
	if in.db != nil {
		h.RegisterCheck("database", in.db.Health)
	}
	if in.redis != nil {
		h.RegisterCheck("redis", in.redis.Health)
	}
	if in.producer != nil {
		h.RegisterCheck("kafka", in.producer.Ping)
	}
}

func (in *infra) close(log *slog.Logger) {
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Warn("failed to close kafka producer", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if err := in.db.Close(); err != nil {
		log.Warn("failed to close database", "error", err)
	}
}
