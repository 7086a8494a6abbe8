package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/emperorhan/celo-feed-engine/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

const defaultBuildConcurrency = 16

// Engine runs the full pipeline for one address batch: fee extraction,
// classification, fee aggregation, and parallel event construction.
type Engine struct {
	chain            []TransactionType
	contracts        *registry.Contracts
	tokens           *registry.TokenRegistry
	builder          *Builder
	buildConcurrency int
	logger           *slog.Logger
}

func New(contracts *registry.Contracts, tokens *registry.TokenRegistry, builder *Builder, logger *slog.Logger) *Engine {
	return &Engine{
		chain:            DefaultChain(),
		contracts:        contracts,
		tokens:           tokens,
		builder:          builder,
		buildConcurrency: defaultBuildConcurrency,
		logger:           logger.With("component", "engine"),
	}
}

// ClassifyAndAggregate turns raw indexer transactions for one address into
// an ordered event batch. The batch fails as a whole only on invariant
// violations; every per-transaction failure is logged, counted, and
// skipped so siblings still produce events.
//
// Event construction fans out in parallel, then results are joined and
// sorted newest-first, never by completion order.
func (e *Engine) ClassifyAndAggregate(ctx context.Context, userAddress common.Address, raws []model.RawTransaction) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.BatchLatency.Observe(time.Since(start).Seconds())
	}()

	c := &Context{
		UserAddress: userAddress,
		Contracts:   e.contracts,
		Tokens:      e.tokens.Snapshot(),
	}

	classified := make([]ClassifiedTransaction, 0, len(raws))
	for _, raw := range raws {
		// Transactions touching unsupported tokens never reach the
		// rule chain.
		if !c.Tokens.KnowsAll(raw.Transfers) {
			metrics.UnknownTokenSkips.Inc()
			e.logger.Debug("skipping transaction with unsupported token", "hash", raw.Hash)
			continue
		}

		tx, err := model.NewTransaction(raw, e.contracts.Governance)
		if err != nil {
			metrics.InvariantViolations.Inc()
			e.logger.Error("fee extraction invariant violated, aborting batch",
				"hash", raw.Hash, "error", err)
			return nil, err
		}

		ct, err := Classify(e.chain, c, tx)
		if err != nil {
			if errors.Is(err, model.ErrUnclassifiable) {
				metrics.UnclassifiableTotal.Inc()
				e.logger.Warn("unclassifiable transaction excluded",
					"hash", tx.Hash, "transfers", len(tx.Transfers()))
				continue
			}
			return nil, err
		}
		classified = append(classified, ct)
	}

	surviving := Aggregate(classified, e.logger)

	events := make([]model.Event, len(surviving))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.buildConcurrency)
	for i, ct := range surviving {
		i, ct := i, ct
		g.Go(func() error {
			ev, err := ct.Type.BuildEvent(gctx, c, ct.Transaction, e.builder)
			if err != nil {
				e.recordBuildFailure(ct, err)
				return nil
			}
			events[i] = ev
			return nil
		})
	}
	// Per-transaction failures never cancel siblings.
	_ = g.Wait()

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			out = append(out, ev)
			metrics.EventsProduced.WithLabelValues(string(ev.EventType())).Inc()
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time().Equal(out[j].Time()) {
			return out[i].Time().After(out[j].Time())
		}
		return out[i].TransactionHash() < out[j].TransactionHash()
	})
	return out, nil
}

func (e *Engine) recordBuildFailure(ct ClassifiedTransaction, err error) {
	var missing *model.MissingTransferError
	switch {
	case errors.Is(err, ErrNotUserFacing):
		// Orphaned contract-call types reach the builder but have
		// nothing to show.
	case errors.As(err, &missing):
		metrics.EventBuildFailures.WithLabelValues("missing_transfer").Inc()
		e.logger.Warn("rule matched but required transfer missing, transaction skipped",
			"hash", ct.Transaction.Hash, "rule", missing.Rule, "want", missing.Want)
	default:
		metrics.EventBuildFailures.WithLabelValues("build").Inc()
		e.logger.Warn("event build failed, transaction skipped",
			"hash", ct.Transaction.Hash, "type", ct.Type.Name(), "error", err)
	}
}
