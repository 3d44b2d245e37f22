package users

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "users:snapshot:version"
	cacheKeyPrefix  = "users:snapshot:"
	// InvalidationChannel carries version bumps between instances.
	InvalidationChannel = "users.bump"
)

// CacheMetrics counts snapshot cache hits and misses.
type CacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCacheMetrics registers the cache counters. A nil registerer yields
// unregistered counters.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "useradmin_users_snapshot_cache_hits_total",
			Help: "Number of user list snapshots served from Redis.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "useradmin_users_snapshot_cache_misses_total",
			Help: "Number of user list snapshots loaded from the backend.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses)
	}
	return m
}

func (m *CacheMetrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *CacheMetrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

// Cache stores the full user collection in Redis under a versioned key.
// Bumping the version invalidates every cached snapshot at once.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *CacheMetrics
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, metrics *CacheMetrics) *Cache {
	return &Cache{client: client, ttl: ttl, metrics: metrics}
}

// Version returns the current snapshot version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent initialiser's value.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key returns the snapshot key for version ver.
func (c *Cache) Key(ver int64) string {
	return cacheKeyPrefix + strconv.FormatInt(ver, 10)
}

// Lookup returns the cached snapshot for ver.
func (c *Cache) Lookup(ctx context.Context, ver int64) ([]User, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, c.Key(ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.miss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snapshot []User
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, err
	}
	c.metrics.hit()
	return snapshot, true, nil
}

// Store saves snapshot under version ver.
func (c *Cache) Store(ctx context.Context, ver int64, snapshot []User) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.Key(ver), raw, c.ttl).Err()
}

// Bump invalidates cached snapshots by incrementing the version and
// publishing the new version to other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, InvalidationChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation calls onBump for every version published on the
// invalidation channel until ctx is cancelled.
func (c *Cache) ListenForInvalidation(ctx context.Context, onBump func(ver int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	// Wait for the subscription to be confirmed so no bump is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}
