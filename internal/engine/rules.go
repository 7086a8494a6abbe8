package engine

import (
	"context"

	"github.com/emperorhan/celo-feed-engine/internal/calldata"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
)

// Transfer-list helpers shared by the rule predicates. All predicates are
// purely structural over the transfer list, the decoded call, and the
// system-contract addresses.

func fungibleFromUser(c *Context, tx *model.Transaction) []model.Transfer {
	var out []model.Transfer
	for _, tr := range tx.Transfers() {
		if tr.Fungible() && c.isUser(tr.From, tr.FromAccount) {
			out = append(out, tr)
		}
	}
	return out
}

func fungibleToUser(c *Context, tx *model.Transaction) []model.Transfer {
	var out []model.Transfer
	for _, tr := range tx.Transfers() {
		if tr.Fungible() && c.isUser(tr.To, tr.ToAccount) {
			out = append(out, tr)
		}
	}
	return out
}

func nftFromUser(c *Context, tx *model.Transaction) []model.Transfer {
	var out []model.Transfer
	for _, tr := range tx.Transfers() {
		if !tr.Fungible() && c.isUser(tr.From, tr.FromAccount) {
			out = append(out, tr)
		}
	}
	return out
}

func nftToUser(c *Context, tx *model.Transaction) []model.Transfer {
	var out []model.Transfer
	for _, tr := range tx.Transfers() {
		if !tr.Fungible() && c.isUser(tr.To, tr.ToAccount) {
			out = append(out, tr)
		}
	}
	return out
}

func countToUser(c *Context, tx *model.Transaction) int {
	n := 0
	for _, tr := range tx.Transfers() {
		if c.isUser(tr.To, tr.ToAccount) {
			n++
		}
	}
	return n
}

func countFromUser(c *Context, tx *model.Transaction) int {
	n := 0
	for _, tr := range tx.Transfers() {
		if c.isUser(tr.From, tr.FromAccount) {
			n++
		}
	}
	return n
}

func firstTo(tx *model.Transaction, addr common.Address) (model.Transfer, bool) {
	for _, tr := range tx.Transfers() {
		if tr.To == addr {
			return tr, true
		}
	}
	return model.Transfer{}, false
}

func firstFrom(tx *model.Transaction, addr common.Address) (model.Transfer, bool) {
	for _, tr := range tx.Transfers() {
		if tr.From == addr {
			return tr, true
		}
	}
	return model.Transfer{}, false
}

func firstMinted(tx *model.Transaction) (model.Transfer, bool) {
	for _, tr := range tx.Transfers() {
		if tr.Minted() {
			return tr, true
		}
	}
	return model.Transfer{}, false
}

func hasMinted(tx *model.Transaction) bool {
	_, ok := firstMinted(tx)
	return ok
}

func hasBurned(tx *model.Transaction) bool {
	for _, tr := range tx.Transfers() {
		if tr.Burned() {
			return true
		}
	}
	return false
}

// contractCall matches recognized system-contract calls that move no
// tokens. Escrow and exchange calls are carved out so the aggregatable
// variants below get first claim on them.
type contractCall struct{}

func (contractCall) Name() string       { return "ContractCall" }
func (contractCall) Aggregatable() bool { return false }

func (contractCall) Matches(_ *Context, tx *model.Transaction) bool {
	if tx.Call() == nil || len(tx.Transfers()) != 0 {
		return false
	}
	kind := tx.Call().Method.Kind
	return kind != calldata.KindEscrow && kind != calldata.KindExchange
}

func (contractCall) BuildEvent(context.Context, *Context, *model.Transaction, *Builder) (model.Event, error) {
	return nil, ErrNotUserFacing
}

// escrowContractCall matches zero-transfer escrow calls such as invite
// withdrawals. Its fees fold into the preceding transaction.
type escrowContractCall struct{}

func (escrowContractCall) Name() string       { return "EscrowContractCall" }
func (escrowContractCall) Aggregatable() bool { return true }

func (escrowContractCall) Matches(_ *Context, tx *model.Transaction) bool {
	return len(tx.Transfers()) == 0 && tx.CallsContract(calldata.KindEscrow)
}

func (escrowContractCall) BuildEvent(context.Context, *Context, *model.Transaction, *Builder) (model.Event, error) {
	return nil, ErrNotUserFacing
}

// exchangeContractCall matches zero-transfer exchange calls such as
// approvals preceding a trade. Its fees fold into the preceding
// transaction.
type exchangeContractCall struct{}

func (exchangeContractCall) Name() string       { return "ExchangeContractCall" }
func (exchangeContractCall) Aggregatable() bool { return true }

func (exchangeContractCall) Matches(_ *Context, tx *model.Transaction) bool {
	return len(tx.Transfers()) == 0 && tx.CallsContract(calldata.KindExchange)
}

func (exchangeContractCall) BuildEvent(context.Context, *Context, *model.Transaction, *Builder) (model.Event, error) {
	return nil, ErrNotUserFacing
}

// escrowSent matches an invite: a single transfer into the escrow
// contract.
type escrowSent struct{}

func (escrowSent) Name() string       { return "EscrowSent" }
func (escrowSent) Aggregatable() bool { return false }

func (escrowSent) Matches(c *Context, tx *model.Transaction) bool {
	transfers := tx.Transfers()
	return len(transfers) == 1 && transfers[0].To == c.Contracts.Escrow
}

func (r escrowSent) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	tr, ok := firstTo(tx, c.Contracts.Escrow)
	if !ok {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer to escrow"}
	}
	return b.transferEvent(ctx, c, tx, model.EventEscrowSent, tr, tr.To, true)
}

// escrowReceived matches an invite redemption, either straight from
// escrow or through the intermediate wallet a managed redemption uses.
// In the two-transfer shape the intermediate is self-controlled: its
// account field equals its own address.
type escrowReceived struct{}

func (escrowReceived) Name() string       { return "EscrowReceived" }
func (escrowReceived) Aggregatable() bool { return false }

func (escrowReceived) Matches(c *Context, tx *model.Transaction) bool {
	transfers := tx.Transfers()
	switch len(transfers) {
	case 1:
		return transfers[0].From == c.Contracts.Escrow
	case 2:
		hop, final := transfers[0], transfers[1]
		return hop.From == c.Contracts.Escrow &&
			final.From == hop.To &&
			final.FromAccount == final.From
	default:
		return false
	}
}

func (r escrowReceived) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	transfers := tx.Transfers()
	if len(transfers) == 0 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer from escrow"}
	}
	received := transfers[len(transfers)-1]
	return b.transferEvent(ctx, c, tx, model.EventEscrowReceived, received, c.Contracts.Escrow, false)
}

// exchangeCeloToToken matches a native-to-stable trade: the native asset
// goes to the reserve and the stable token is minted to the user.
type exchangeCeloToToken struct{}

func (exchangeCeloToToken) Name() string       { return "ExchangeCeloToToken" }
func (exchangeCeloToToken) Aggregatable() bool { return false }

func (exchangeCeloToToken) Matches(c *Context, tx *model.Transaction) bool {
	if len(tx.Transfers()) != 2 {
		return false
	}
	_, toReserve := firstTo(tx, c.Contracts.Reserve)
	return toReserve && hasMinted(tx)
}

func (r exchangeCeloToToken) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	out, ok := firstTo(tx, c.Contracts.Reserve)
	if !ok {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer to reserve"}
	}
	in, ok := firstMinted(tx)
	if !ok {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "minted token transfer"}
	}
	return b.exchangeEvent(ctx, c, tx, out, in)
}

// exchangeTokenToCelo matches a stable-to-native trade: the stable token
// goes to the exchange and is burned while the reserve pays out the
// native asset.
type exchangeTokenToCelo struct{}

func (exchangeTokenToCelo) Name() string       { return "ExchangeTokenToCelo" }
func (exchangeTokenToCelo) Aggregatable() bool { return false }

func (exchangeTokenToCelo) Matches(c *Context, tx *model.Transaction) bool {
	if len(tx.Transfers()) != 3 {
		return false
	}
	_, fromReserve := firstFrom(tx, c.Contracts.Reserve)
	_, toExchange := firstTo(tx, c.Contracts.Exchange)
	return fromReserve && toExchange && hasBurned(tx)
}

func (r exchangeTokenToCelo) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	out, ok := firstTo(tx, c.Contracts.Exchange)
	if !ok {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer to exchange"}
	}
	in, ok := firstFrom(tx, c.Contracts.Reserve)
	if !ok {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer from reserve"}
	}
	return b.exchangeEvent(ctx, c, tx, out, in)
}

// tokenSent matches a plain outgoing payment.
type tokenSent struct{}

func (tokenSent) Name() string       { return "TokenSent" }
func (tokenSent) Aggregatable() bool { return false }

func (tokenSent) Matches(c *Context, tx *model.Transaction) bool {
	return len(fungibleFromUser(c, tx)) == 1 && countToUser(c, tx) == 0
}

func (r tokenSent) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	out := fungibleFromUser(c, tx)
	if len(out) != 1 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer from user"}
	}
	return b.transferEvent(ctx, c, tx, model.EventSent, out[0], out[0].To, true)
}

// tokenReceived matches a plain incoming payment.
type tokenReceived struct{}

func (tokenReceived) Name() string       { return "TokenReceived" }
func (tokenReceived) Aggregatable() bool { return false }

func (tokenReceived) Matches(c *Context, tx *model.Transaction) bool {
	return len(fungibleToUser(c, tx)) == 1 && countFromUser(c, tx) == 0
}

func (r tokenReceived) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	in := fungibleToUser(c, tx)
	if len(in) != 1 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "transfer to user"}
	}
	return b.transferEvent(ctx, c, tx, model.EventReceived, in[0], in[0].From, false)
}

// swapTransaction matches a token-to-token trade: one fungible leg each
// way and nothing non-fungible in the transaction.
type swapTransaction struct{}

func (swapTransaction) Name() string       { return "SwapTransaction" }
func (swapTransaction) Aggregatable() bool { return false }

func (swapTransaction) Matches(c *Context, tx *model.Transaction) bool {
	for _, tr := range tx.Transfers() {
		if !tr.Fungible() {
			return false
		}
	}
	return len(fungibleFromUser(c, tx)) == 1 && len(fungibleToUser(c, tx)) == 1
}

func (r swapTransaction) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	out := fungibleFromUser(c, tx)
	in := fungibleToUser(c, tx)
	if len(out) != 1 || len(in) != 1 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "one transfer each way"}
	}
	return b.exchangeEvent(ctx, c, tx, out[0], in[0])
}

// nftReceived matches when at least as many non-fungible tokens arrive
// as leave, and at least one arrives.
type nftReceived struct{}

func (nftReceived) Name() string       { return "NftReceived" }
func (nftReceived) Aggregatable() bool { return false }

func (nftReceived) Matches(c *Context, tx *model.Transaction) bool {
	to := nftToUser(c, tx)
	return len(to) > 0 && len(to) >= len(nftFromUser(c, tx))
}

func (r nftReceived) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	to := nftToUser(c, tx)
	if len(to) == 0 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "non-fungible transfer to user"}
	}
	return b.nftEvent(ctx, tx, model.EventNftReceived, to)
}

// nftSent matches when strictly more non-fungible tokens leave than
// arrive.
type nftSent struct{}

func (nftSent) Name() string       { return "NftSent" }
func (nftSent) Aggregatable() bool { return false }

func (nftSent) Matches(c *Context, tx *model.Transaction) bool {
	return len(nftFromUser(c, tx)) > len(nftToUser(c, tx))
}

func (r nftSent) BuildEvent(ctx context.Context, c *Context, tx *model.Transaction, b *Builder) (model.Event, error) {
	from := nftFromUser(c, tx)
	if len(from) == 0 {
		return nil, &model.MissingTransferError{Rule: r.Name(), Want: "non-fungible transfer from user"}
	}
	return b.nftEvent(ctx, tx, model.EventNftSent, from)
}

// anyTransaction is the catch-all. It always matches, guaranteeing the
// chain is exhaustive; the engine logs and excludes these instead of
// building an event.
type anyTransaction struct{}

func (anyTransaction) Name() string       { return "Any" }
func (anyTransaction) Aggregatable() bool { return false }

func (anyTransaction) Matches(*Context, *model.Transaction) bool {
	return true
}

func (anyTransaction) BuildEvent(context.Context, *Context, *model.Transaction, *Builder) (model.Event, error) {
	return nil, model.ErrUnclassifiable
}
