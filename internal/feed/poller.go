// Package feed drives the per-address poll cycle: fetch raw transfers,
// run them through the engine, and publish the resulting events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/alert"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/engine"
	"github.com/emperorhan/celo-feed-engine/internal/fetch"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
)

// Emitter publishes a finished event batch downstream.
type Emitter interface {
	Emit(ctx context.Context, events []model.Event) error
}

// AddressStatus is the last completed cycle outcome for one watched
// address, exposed through the ops status endpoint.
type AddressStatus struct {
	Address     string    `json:"address"`
	CompletedAt time.Time `json:"completed_at"`
	Events      int       `json:"events"`
	Error       string    `json:"error,omitempty"`
}

// Poller walks every watched address on a fixed interval. Cycles are
// independent per address; one failing address never blocks the rest.
type Poller struct {
	fetcher   fetch.TransferFetcher
	engine    *engine.Engine
	emitter   Emitter
	alerter   alert.Alerter
	addresses []common.Address
	interval  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	status  map[common.Address]AddressStatus
	failing map[common.Address]bool
}

func NewPoller(
	fetcher fetch.TransferFetcher,
	eng *engine.Engine,
	emitter Emitter,
	alerter alert.Alerter,
	addresses []common.Address,
	interval time.Duration,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		fetcher:   fetcher,
		engine:    eng,
		emitter:   emitter,
		alerter:   alerter,
		addresses: addresses,
		interval:  interval,
		logger:    logger.With("component", "poller"),
		status:    make(map[common.Address]AddressStatus, len(addresses)),
		failing:   make(map[common.Address]bool),
	}
}

// Run cycles immediately, then on every interval tick until ctx ends.
func (p *Poller) Run(ctx context.Context) error {
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	for _, addr := range p.addresses {
		if ctx.Err() != nil {
			return
		}
		p.pollAddress(ctx, addr)
	}
}

func (p *Poller) pollAddress(ctx context.Context, addr common.Address) {
	raws, err := fetch.All(ctx, p.fetcher, addr)
	if err != nil {
		metrics.PollCycles.WithLabelValues("fetch_error").Inc()
		p.recordFailure(ctx, addr, alert.AlertTypeFetchFailing, "fetcher",
			fmt.Errorf("fetch transfers for %s: %w", addr.Hex(), err))
		return
	}

	events, err := p.engine.ClassifyAndAggregate(ctx, addr, raws)
	if err != nil {
		metrics.PollCycles.WithLabelValues("engine_error").Inc()
		alertType := alert.AlertTypeFetchFailing
		var invariant *model.InvariantError
		if errors.As(err, &invariant) {
			alertType = alert.AlertTypeInvariant
		}
		p.recordFailure(ctx, addr, alertType, "engine",
			fmt.Errorf("process batch for %s: %w", addr.Hex(), err))
		return
	}

	if err := p.emitter.Emit(ctx, events); err != nil {
		metrics.PollCycles.WithLabelValues("emit_error").Inc()
		p.recordFailure(ctx, addr, alert.AlertTypeEmitterFailing, "emitter",
			fmt.Errorf("emit events for %s: %w", addr.Hex(), err))
		return
	}

	metrics.PollCycles.WithLabelValues("ok").Inc()
	p.recordSuccess(ctx, addr, len(events))
}

func (p *Poller) recordFailure(ctx context.Context, addr common.Address, alertType alert.AlertType, component string, err error) {
	p.logger.Error("poll cycle failed", "address", addr.Hex(), "component", component, "error", err)

	p.mu.Lock()
	p.status[addr] = AddressStatus{Address: addr.Hex(), CompletedAt: time.Now().UTC(), Error: err.Error()}
	p.failing[addr] = true
	p.mu.Unlock()

	if p.alerter == nil {
		return
	}
	sendErr := p.alerter.Send(ctx, alert.Alert{
		Type:      alertType,
		Component: component,
		Title:     "poll cycle failed",
		Message:   err.Error(),
		Fields:    map[string]string{"address": addr.Hex()},
	})
	if sendErr != nil {
		p.logger.Warn("failed to dispatch alert", "error", sendErr)
	}
}

func (p *Poller) recordSuccess(ctx context.Context, addr common.Address, events int) {
	p.mu.Lock()
	p.status[addr] = AddressStatus{Address: addr.Hex(), CompletedAt: time.Now().UTC(), Events: events}
	recovered := p.failing[addr]
	delete(p.failing, addr)
	p.mu.Unlock()

	p.logger.Debug("poll cycle completed", "address", addr.Hex(), "events", events)

	if recovered && p.alerter != nil {
		sendErr := p.alerter.Send(ctx, alert.Alert{
			Type:      alert.AlertTypeRecovery,
			Component: "poller",
			Title:     "address polling recovered",
			Fields:    map[string]string{"address": addr.Hex()},
		})
		if sendErr != nil {
			p.logger.Warn("failed to dispatch recovery alert", "error", sendErr)
		}
	}
}

// Status reports the last cycle outcome per address in watch order.
func (p *Poller) Status() []AddressStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]AddressStatus, 0, len(p.addresses))
	for _, addr := range p.addresses {
		if st, ok := p.status[addr]; ok {
			out = append(out, st)
			continue
		}
		out = append(out, AddressStatus{Address: addr.Hex()})
	}
	return out
}
