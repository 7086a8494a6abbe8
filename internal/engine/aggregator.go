package engine

import (
	"log/slog"

	"github.com/emperorhan/celo-feed-engine/internal/metrics"
)

// Aggregate folds fee-only transactions into their predecessor: a left
// fold that, for each aggregatable transaction with a predecessor in the
// output, merges its fees into the transaction at the output tail and
// discards it. Surviving transactions keep their original relative order.
//
// An aggregatable transaction at the head of the batch has no predecessor
// to absorb its fees and is dropped. This usually marks a page boundary
// where the preceding transaction landed on the previous page; the fee is
// discarded rather than shown orphaned.
func Aggregate(classified []ClassifiedTransaction, logger *slog.Logger) []ClassifiedTransaction {
	out := make([]ClassifiedTransaction, 0, len(classified))
	for _, ct := range classified {
		if !ct.Type.Aggregatable() {
			out = append(out, ct)
			continue
		}
		if len(out) == 0 {
			metrics.OrphanFeeDrops.Inc()
			logger.Debug("aggregatable transaction with no predecessor dropped",
				"hash", ct.Transaction.Hash, "type", ct.Type.Name())
			continue
		}
		tail := out[len(out)-1].Transaction
		for _, fee := range ct.Transaction.Fees() {
			tail.AddFee(fee)
		}
		metrics.FeeFolds.Inc()
	}
	return out
}
