// Package engine classifies raw transfer batches into user-facing feed
// events: fee extraction, an ordered rule chain, fee aggregation, and
// parallel event construction.
package engine

import (
	"context"
	"errors"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/registry"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNotUserFacing is returned by contract-call types, which survive
// aggregation only when orphaned and never produce an event.
var ErrNotUserFacing = errors.New("transaction type produces no event")

// Context carries the per-batch facts every rule predicate needs. It is
// built once per batch from one registry snapshot so classification never
// observes a half-applied token refresh.
type Context struct {
	UserAddress common.Address
	Contracts   *registry.Contracts
	Tokens      *registry.Snapshot
}

// isUser reports whether a transfer endpoint belongs to the batch user,
// either directly or through the wallet's controlling account.
func (c *Context) isUser(addr, account common.Address) bool {
	return addr == c.UserAddress || account == c.UserAddress
}

// TransactionType is one classification rule. Matches is a pure predicate
// over the transaction's structure; BuildEvent runs only for the rule that
// won and may call out for enrichment.
type TransactionType interface {
	Name() string
	Matches(c *Context, tx *model.Transaction) bool
	Aggregatable() bool
	BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error)
}

// ClassifiedTransaction pairs a transaction with the rule that matched it.
type ClassifiedTransaction struct {
	Transaction *model.Transaction
	Type        TransactionType
}
