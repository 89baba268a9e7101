package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"podium/internal/registry/models"
	id "podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podium_athlete_cache_lookups_total",
		Help: "Athlete cache lookups, by result (hit, miss, error)",
	}, []string{"result"})
	cacheLookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "podium_athlete_cache_lookup_duration_ms",
		Help:    "Latency of athlete cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
	cacheFills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podium_athlete_cache_fills_total",
		Help: "Athlete cache fills, by result (stored, superseded)",
	}, []string{"result"})
)

// fillScript stores the snapshot in KEYS[2] only while the generation in
// KEYS[1] still equals ARGV[1]. A missing generation reads as zero.
var fillScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false then
	current = '0'
end
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

const (
	athleteKeyPrefix = "podium:athlete:"
	generationSuffix = ":gen"

	// DefaultTTL bounds how long a snapshot may be served after a write the
	// invalidation missed.
	DefaultTTL = 5 * time.Minute
)

// RedisAthleteCache stores JSON athlete snapshots in Redis.
type RedisAthleteCache struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*RedisAthleteCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisAthleteCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedis constructs a cache over an existing client. The client lifecycle is
// managed by the caller.
func NewRedis(client *redis.Client, opts ...Option) *RedisAthleteCache {
	c := &RedisAthleteCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func athleteKey(athleteID id.AthleteID) string {
	return athleteKeyPrefix + athleteID.String()
}

func generationKey(athleteID id.AthleteID) string {
	return athleteKey(athleteID) + generationSuffix
}

// Get returns sentinel.ErrNotFound on a miss.
func (c *RedisAthleteCache) Get(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error) {
	start := time.Now()
	defer func() {
		cacheLookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.Get(ctx, athleteKey(athleteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("get athlete %s from cache: %w", athleteID, err)
	}

	var athlete models.Athlete
	if err := json.Unmarshal(raw, &athlete); err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode cached athlete %s: %w", athleteID, err)
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return &athlete, nil
}

// Generation returns the athlete's invalidation counter. Read it before
// loading the snapshot that will be passed to Set.
func (c *RedisAthleteCache) Generation(ctx context.Context, athleteID id.AthleteID) (uint64, error) {
	raw, err := c.client.Get(ctx, generationKey(athleteID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cache generation for athlete %s: %w", athleteID, err)
	}
	generation, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode cache generation for athlete %s: %w", athleteID, err)
	}
	return generation, nil
}

// Set stores athlete unless Invalidate has run since generation was read. A
// superseded fill is dropped silently.
func (c *RedisAthleteCache) Set(ctx context.Context, athlete *models.Athlete, generation uint64) error {
	raw, err := json.Marshal(athlete)
	if err != nil {
		return fmt.Errorf("encode athlete %s: %w", athlete.ID, err)
	}
	stored, err := fillScript.Run(ctx, c.client,
		[]string{generationKey(athlete.ID), athleteKey(athlete.ID)},
		strconv.FormatUint(generation, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("fill cache for athlete %s: %w", athlete.ID, err)
	}
	if stored == 0 {
		cacheFills.WithLabelValues("superseded").Inc()
		return nil
	}
	cacheFills.WithLabelValues("stored").Inc()
	return nil
}

// Invalidate bumps the generation and drops the snapshot in one MULTI, so a
// fill that loaded before the write can no longer land.
func (c *RedisAthleteCache) Invalidate(ctx context.Context, athleteID id.AthleteID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(athleteID))
		pipe.Del(ctx, athleteKey(athleteID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate athlete %s: %w", athleteID, err)
	}
	return nil
}
