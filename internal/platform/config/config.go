package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevJWTSigningKey is used when JWT_SIGNING_KEY is unset. It must be
// overridden outside dev.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `env:"PODIUM_ADDR" envDefault:":8080"`
	Environment    string        `env:"PODIUM_ENV" envDefault:"dev"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RegistryOwner  string        `env:"REGISTRY_OWNER,required,notEmpty"`
	JWT            JWTConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Relay          RelayConfig
}

type JWTConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string `env:"JWT_ISSUER" envDefault:"podium"`
	Audience   string `env:"JWT_AUDIENCE" envDefault:"podium-api"`
}

// DatabaseConfig selects the PostgreSQL store. An empty URL keeps the
// registry in memory.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// RedisConfig enables the athlete cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	CacheTTL     time.Duration `env:"ATHLETE_CACHE_TTL" envDefault:"5m"`
}

// KafkaConfig enables the Kafka publisher. Empty brokers fall back to the log
// publisher.
type KafkaConfig struct {
	Brokers         string        `env:"KAFKA_BROKERS"`
	Topic           string        `env:"KAFKA_TOPIC" envDefault:"podium.registry.events"`
	Acks            string        `env:"KAFKA_ACKS" envDefault:"all"`
	Retries         int           `env:"KAFKA_RETRIES" envDefault:"3"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT" envDefault:"30s"`
	Partitions      int32         `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	Replication     int16         `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

type RelayConfig struct {
	PollInterval time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"200ms"`
	BatchSize    int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Relay.BatchSize <= 0 {
		return Server{}, fmt.Errorf("RELAY_BATCH_SIZE must be positive, got %d", cfg.Relay.BatchSize)
	}
	return cfg, nil
}

// IsDev reports whether the server runs in the dev environment.
func (s Server) IsDev() bool {
	return s.Environment == "dev"
}

// UsesDevSigningKey reports whether JWTs are signed with the built-in dev key.
func (s Server) UsesDevSigningKey() bool {
	return s.JWT.SigningKey == DevJWTSigningKey
}
