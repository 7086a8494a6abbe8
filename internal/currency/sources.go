package currency

import (
	"context"
	"log/slog"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/circuitbreaker"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/emperorhan/celo-feed-engine/internal/ratecache"
	"github.com/emperorhan/celo-feed-engine/internal/ratelimit"
	"github.com/shopspring/decimal"
)

// guard layers the shared external-source protections around a rate
// lookup: cache read-through, client-side rate limiting, circuit
// breaking, and stale-value fallback when the live call fails.
type guard struct {
	name    string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	cache   *ratecache.Cache
	logger  *slog.Logger
}

func (g *guard) rate(ctx context.Context, from, to model.CurrencyCode, at time.Time, fn func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if cached, ok := g.cache.Get(ctx, g.name, from, to, at); ok {
		return cached, nil
	}

	var out decimal.Decimal
	call := func() error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}

	err := func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if g.breaker != nil {
			return g.breaker.Do(call)
		}
		return call()
	}()

	if err != nil {
		metrics.RateLookups.WithLabelValues(g.name, "error").Inc()
		if stale, ok := g.cache.Stale(g.name, from, to); ok {
			g.logger.Warn("live rate lookup failed, serving last cached value",
				"source", g.name, "from", from, "to", to, "error", err)
			return stale, nil
		}
		return decimal.Zero, err
	}

	metrics.RateLookups.WithLabelValues(g.name, "ok").Inc()
	g.cache.Put(ctx, g.name, from, to, at, out)
	return out, nil
}

// GuardedOracleSource wraps an OracleSource with the standard protections.
type GuardedOracleSource struct {
	guard
	src OracleSource
}

func NewGuardedOracleSource(src OracleSource, limiter *ratelimit.Limiter, breaker *circuitbreaker.Breaker, cache *ratecache.Cache, logger *slog.Logger) *GuardedOracleSource {
	return &GuardedOracleSource{
		guard: guard{name: "oracle", limiter: limiter, breaker: breaker, cache: cache, logger: logger},
		src:   src,
	}
}

func (s *GuardedOracleSource) OracleRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error) {
	return s.rate(ctx, from, to, at, func(ctx context.Context) (decimal.Decimal, error) {
		return s.src.OracleRate(ctx, from, to, at)
	})
}

// GuardedFxSource wraps an FxSource with the standard protections.
type GuardedFxSource struct {
	guard
	src FxSource
}

func NewGuardedFxSource(src FxSource, limiter *ratelimit.Limiter, breaker *circuitbreaker.Breaker, cache *ratecache.Cache, logger *slog.Logger) *GuardedFxSource {
	return &GuardedFxSource{
		guard: guard{name: "fx", limiter: limiter, breaker: breaker, cache: cache, logger: logger},
		src:   src,
	}
}

func (s *GuardedFxSource) FxRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error) {
	return s.rate(ctx, from, to, at, func(ctx context.Context) (decimal.Decimal, error) {
		return s.src.FxRate(ctx, from, to, at)
	})
}
