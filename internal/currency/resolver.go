// Package currency resolves multiplicative exchange rates between token
// and fiat currency codes by walking a derived hop sequence and resolving
// each hop from, in priority order: a caller-supplied override, a 1:1
// stable pair, the on-chain oracle, or the generic FX source.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/shopspring/decimal"
)

// OracleSource quotes tokens tracked by the on-chain price oracle.
type OracleSource interface {
	OracleRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error)
}

// FxSource quotes fiat/fiat pairs.
type FxSource interface {
	FxRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error)
}

type Resolver struct {
	universe *Universe
	oracle   OracleSource
	fx       FxSource
	logger   *slog.Logger
}

func NewResolver(universe *Universe, oracle OracleSource, fx FxSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		universe: universe,
		oracle:   oracle,
		fx:       fx,
		logger:   logger.With("component", "currency_resolver"),
	}
}

// GetExchangeRate returns the factor such that
// amount(to) = amount(from) * rate. A missing rate at any hop fails the
// whole conversion; callers must surface "unpriceable" rather than guess.
func (r *Resolver) GetExchangeRate(ctx context.Context, from, to model.CurrencyCode, at time.Time, overrides map[Pair]decimal.Decimal) (decimal.Decimal, error) {
	rate := decimal.NewFromInt(1)
	steps := r.universe.ConversionSteps(from, to)
	for i := 0; i+1 < len(steps); i++ {
		hop, err := r.hopRate(ctx, steps[i], steps[i+1], at, overrides)
		if err != nil {
			return decimal.Zero, fmt.Errorf("resolve hop %s/%s: %w", steps[i], steps[i+1], err)
		}
		rate = rate.Mul(hop)
	}
	return rate, nil
}

// Convert converts an amount between currency codes at the given time.
func (r *Resolver) Convert(ctx context.Context, amount decimal.Decimal, from, to model.CurrencyCode, at time.Time, overrides map[Pair]decimal.Decimal) (decimal.Decimal, error) {
	rate, err := r.GetExchangeRate(ctx, from, to, at, overrides)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// hopRate resolves one hop. An override is the actually-executed rate of
// a specific on-chain event and beats every derived rate.
func (r *Resolver) hopRate(ctx context.Context, from, to model.CurrencyCode, at time.Time, overrides map[Pair]decimal.Decimal) (decimal.Decimal, error) {
	if rate, ok := overrides[Pair{from, to}]; ok {
		return rate, nil
	}
	if r.universe.StablePair(from, to) {
		return decimal.NewFromInt(1), nil
	}
	if r.universe.OracleToken(from) || r.universe.OracleToken(to) {
		return r.oracle.OracleRate(ctx, from, to, at)
	}
	return r.fx.FxRate(ctx, from, to, at)
}
