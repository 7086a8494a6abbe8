package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine and external-source counters. Everything here is fire-and-forget;
// no code path may fail because a metric could not be recorded.

var (
	// Classification
	TransactionsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "classifier",
		Name:      "transactions_total",
		Help:      "Transactions classified, by matched rule",
	}, []string{"type"})

	UnclassifiableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "classifier",
		Name:      "unclassifiable_total",
		Help:      "Transactions that only matched the catch-all rule",
	})

	UnknownTokenSkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "classifier",
		Name:      "unknown_token_skips_total",
		Help:      "Transactions excluded because a transfer references an unsupported token",
	})

	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "engine",
		Name:      "invariant_violations_total",
		Help:      "Batch-fatal invariant violations (fee sum mismatch and similar)",
	})

	// Aggregation
	FeeFolds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "aggregator",
		Name:      "fee_folds_total",
		Help:      "Aggregatable transactions folded into their predecessor",
	})

	OrphanFeeDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "aggregator",
		Name:      "orphan_fee_drops_total",
		Help:      "Aggregatable transactions dropped with no predecessor to absorb their fees",
	})

	// Event building
	EventBuildFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "builder",
		Name:      "failures_total",
		Help:      "Per-transaction event build failures, by reason",
	}, []string{"reason"})

	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "builder",
		Name:      "enrichment_failures_total",
		Help:      "Best-effort enrichment lookups that failed, by kind",
	}, []string{"kind"})

	BatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feedengine",
		Subsystem: "engine",
		Name:      "batch_duration_seconds",
		Help:      "ClassifyAndAggregate duration including enrichment fan-out",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	EventsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "engine",
		Name:      "events_total",
		Help:      "Events produced, by event type",
	}, []string{"type"})

	// Currency conversion
	RateLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "rates",
		Name:      "lookups_total",
		Help:      "External rate source lookups, by source and outcome",
	}, []string{"source", "status"})

	RateCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "rates",
		Name:      "cache_results_total",
		Help:      "Rate cache reads, by source and outcome (hit, miss, stale)",
	}, []string{"source", "outcome"})

	RateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "rates",
		Name:      "ratelimit_waits_total",
		Help:      "Rate source calls delayed by the client-side limiter",
	}, []string{"source"})

	BreakerStateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "rates",
		Name:      "breaker_transitions_total",
		Help:      "Circuit breaker state transitions, by source and new state",
	}, []string{"source", "to"})

	// Emitter
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "emitter",
		Name:      "events_total",
		Help:      "Events published downstream, by outcome",
	}, []string{"status"})

	// Polling
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "poller",
		Name:      "address_cycles_total",
		Help:      "Per-address poll cycles, by outcome",
	}, []string{"status"})

	// Ops API
	OpsRequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "ops",
		Name:      "requests_throttled_total",
		Help:      "Ops API requests rejected by the per-client rate limit",
	})

	// Alerts
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Alerts dispatched, by type",
	}, []string{"type"})

	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedengine",
		Subsystem: "alerts",
		Name:      "suppressed_total",
		Help:      "Alerts suppressed by cooldown, by type",
	}, []string{"type"})
)
