package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/store"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is a read-only view of the supported-token set. Consumers hold
// one snapshot for the duration of a batch so classification never sees a
// half-applied refresh.
type Snapshot struct {
	byAddress map[common.Address]model.Token
	bySymbol  map[model.CurrencyCode]model.Token
}

func NewSnapshot(tokens []model.Token) *Snapshot {
	s := &Snapshot{
		byAddress: make(map[common.Address]model.Token, len(tokens)),
		bySymbol:  make(map[model.CurrencyCode]model.Token, len(tokens)),
	}
	for _, t := range tokens {
		s.byAddress[t.Address] = t
		s.bySymbol[t.Symbol] = t
	}
	return s
}

func (s *Snapshot) ByAddress(addr common.Address) (model.Token, bool) {
	t, ok := s.byAddress[addr]
	return t, ok
}

func (s *Snapshot) BySymbol(code model.CurrencyCode) (model.Token, bool) {
	t, ok := s.bySymbol[code]
	return t, ok
}

// KnowsAll reports whether every transfer references a registered token.
// Transactions touching unknown tokens are excluded before classification.
func (s *Snapshot) KnowsAll(transfers []model.Transfer) bool {
	for _, tr := range transfers {
		if _, ok := s.byAddress[tr.TokenAddress]; !ok {
			return false
		}
	}
	return true
}

func (s *Snapshot) Tokens() []model.Token {
	out := make([]model.Token, 0, len(s.byAddress))
	for _, t := range s.byAddress {
		out = append(out, t)
	}
	return out
}

func (s *Snapshot) Len() int {
	return len(s.byAddress)
}

// TokenRegistry keeps the current token snapshot and refreshes it from the
// token store on an interval: load on start, swap atomically on update,
// hand out read-only snapshots to consumers.
type TokenRegistry struct {
	repo     store.TokenRepository
	interval time.Duration
	logger   *slog.Logger
	snap     atomic.Pointer[Snapshot]
}

func NewTokenRegistry(repo store.TokenRepository, interval time.Duration, logger *slog.Logger) *TokenRegistry {
	r := &TokenRegistry{
		repo:     repo,
		interval: interval,
		logger:   logger.With("component", "token_registry"),
	}
	r.snap.Store(NewSnapshot(nil))
	return r
}

// Start performs the initial load (fatal on failure) and then refreshes
// until ctx is cancelled. Refresh failures after the first load keep the
// previous snapshot.
func (r *TokenRegistry) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("initial token load: %w", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("token refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

func (r *TokenRegistry) Refresh(ctx context.Context) error {
	tokens, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}
	r.snap.Store(NewSnapshot(tokens))
	r.logger.Debug("token snapshot swapped", "tokens", len(tokens))
	return nil
}

func (r *TokenRegistry) Snapshot() *Snapshot {
	return r.snap.Load()
}
