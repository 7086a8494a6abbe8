// Package ratecache caches resolved exchange rates by [source, pair, date].
// Redis is the shared backend when configured; an in-memory LRU always
// shadows it so a stale value can be served when a live lookup fails.
package ratecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/cache"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	fallbackCapacity = 4096

	// Rates for the current day can still move; historical rates are
	// final, so their entries may live much longer.
	recentTTL     = time.Hour
	historicalTTL = 14 * 24 * time.Hour
)

type pairKey struct {
	Source string
	From   model.CurrencyCode
	To     model.CurrencyCode
}

type entry struct {
	Rate    decimal.Decimal
	DateKey string
}

type Cache struct {
	rdb      *redis.Client // nil means in-memory only
	fallback *cache.LRU[pairKey, entry]
	nowFn    func() time.Time
	logger   *slog.Logger
}

// New creates an in-memory rate cache.
func New(logger *slog.Logger) *Cache {
	return &Cache{
		fallback: cache.NewLRU[pairKey, entry](fallbackCapacity, recentTTL),
		nowFn:    time.Now,
		logger:   logger.With("component", "ratecache"),
	}
}

// NewWithRedis creates a rate cache backed by redis, with the in-memory
// fallback shadowing it.
func NewWithRedis(url string, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := New(logger)
	c.rdb = client
	return c, nil
}

func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get returns the cached rate for the pair on the given date.
func (c *Cache) Get(ctx context.Context, source string, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, bool) {
	date := dateKey(at)

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, redisKey(source, from, to, date)).Result()
		if err == nil {
			rate, perr := decimal.NewFromString(raw)
			if perr == nil {
				metrics.RateCacheResults.WithLabelValues(source, "hit").Inc()
				return rate, true
			}
			c.logger.Warn("corrupt cached rate dropped", "source", source, "from", from, "to", to, "value", raw)
		} else if err != redis.Nil {
			c.logger.Warn("redis rate read failed", "source", source, "error", err)
		}
	}

	if e, ok := c.fallback.Get(pairKey{source, from, to}); ok && e.DateKey == date {
		metrics.RateCacheResults.WithLabelValues(source, "hit").Inc()
		return e.Rate, true
	}

	metrics.RateCacheResults.WithLabelValues(source, "miss").Inc()
	return decimal.Zero, false
}

// Put stores a successfully resolved rate. Writes are last-value-wins;
// redis failures only log.
func (c *Cache) Put(ctx context.Context, source string, from, to model.CurrencyCode, at time.Time, rate decimal.Decimal) {
	date := dateKey(at)
	c.fallback.Put(pairKey{source, from, to}, entry{Rate: rate, DateKey: date})

	if c.rdb != nil {
		ttl := c.ttlFor(at)
		if err := c.rdb.Set(ctx, redisKey(source, from, to, date), rate.String(), ttl).Err(); err != nil {
			c.logger.Warn("redis rate write failed", "source", source, "error", err)
		}
	}
}

// Stale returns the most recent successfully cached rate for the pair,
// regardless of date or expiry. Only used after a live lookup failed.
func (c *Cache) Stale(source string, from, to model.CurrencyCode) (decimal.Decimal, bool) {
	e, ok := c.fallback.GetStale(pairKey{source, from, to})
	if !ok {
		return decimal.Zero, false
	}
	metrics.RateCacheResults.WithLabelValues(source, "stale").Inc()
	return e.Rate, true
}

// ttlFor picks the redis TTL: dates more than 24h in the past are final
// and cached long; today's rates expire hourly.
func (c *Cache) ttlFor(at time.Time) time.Duration {
	if c.nowFn().Sub(at) > 24*time.Hour {
		return historicalTTL
	}
	return recentTTL
}

func dateKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

func redisKey(source string, from, to model.CurrencyCode, date string) string {
	return fmt.Sprintf("rate:%s:%s:%s:%s", source, from, to, date)
}
