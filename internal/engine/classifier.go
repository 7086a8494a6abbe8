package engine

import (
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
)

// DefaultChain returns the classification rules in evaluation order. The
// order is a behavioral contract, most-specific first, catch-all last;
// reordering changes which rule claims a transaction and is covered by a
// regression test enumerating the exact sequence.
func DefaultChain() []TransactionType {
	return []TransactionType{
		contractCall{},
		escrowContractCall{},
		exchangeContractCall{},
		escrowSent{},
		escrowReceived{},
		exchangeCeloToToken{},
		exchangeTokenToCelo{},
		tokenSent{},
		tokenReceived{},
		swapTransaction{},
		nftReceived{},
		nftSent{},
		anyTransaction{},
	}
}

// Classify walks the chain and returns the first matching rule. The
// catch-all guarantees a match for every well-formed transaction; when it
// is the only match the classified result is still returned alongside
// model.ErrUnclassifiable so the caller can log and exclude it.
func Classify(chain []TransactionType, c *Context, tx *model.Transaction) (ClassifiedTransaction, error) {
	for _, t := range chain {
		if !t.Matches(c, tx) {
			continue
		}
		metrics.TransactionsClassified.WithLabelValues(t.Name()).Inc()
		ct := ClassifiedTransaction{Transaction: tx, Type: t}
		if _, isAny := t.(anyTransaction); isAny {
			return ct, model.ErrUnclassifiable
		}
		return ct, nil
	}
	// Unreachable while the catch-all is in the chain.
	return ClassifiedTransaction{Transaction: tx, Type: anyTransaction{}}, model.ErrUnclassifiable
}
