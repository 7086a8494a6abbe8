package model

import (
	"math/big"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/calldata"
	"github.com/ethereum/go-ethereum/common"
)

// RawTransaction carries the per-transaction fields and transfer list as
// delivered by the transfer indexer, before fee extraction.
type RawTransaction struct {
	Hash                string
	Block               int64
	Timestamp           time.Time
	GasPrice            *big.Int
	GasUsed             *big.Int
	FeeCurrency         CurrencyCode // empty means the native asset
	GatewayFee          *big.Int
	GatewayFeeRecipient *common.Address
	Input               []byte
	Transfers           []Transfer
}

// Transaction owns an ordered transfer list with fee-carrier transfers
// already split out into typed fees. It is mutated exactly once at
// construction; after that only AddFee touches it, during aggregation.
type Transaction struct {
	Hash                string
	Block               int64
	Timestamp           time.Time
	GasPrice            *big.Int
	GasUsed             *big.Int
	FeeCurrency         CurrencyCode
	GatewayFee          *big.Int
	GatewayFeeRecipient *common.Address

	transfers []Transfer
	fees      []Fee
	call      *calldata.Call
	comment   string
}

// NewTransaction builds a Transaction from raw indexer data, extracting
// fee-carrier transfers positionally. When the fee currency is not the
// native asset the chain emits the fee as trailing transfers: an optional
// gateway-fee transfer to the gateway recipient, a transfer to the
// validator, and an optional transfer to the governance account. Those are
// popped from the end of the list in that order and must sum to exactly
// gasUsed*gasPrice + gatewayFee, otherwise the batch is aborted with an
// invariant violation.
func NewTransaction(raw RawTransaction, governance common.Address) (*Transaction, error) {
	tx := &Transaction{
		Hash:                raw.Hash,
		Block:               raw.Block,
		Timestamp:           raw.Timestamp,
		GasPrice:            bigOrZero(raw.GasPrice),
		GasUsed:             bigOrZero(raw.GasUsed),
		FeeCurrency:         raw.FeeCurrency,
		GatewayFee:          bigOrZero(raw.GatewayFee),
		GatewayFeeRecipient: raw.GatewayFeeRecipient,
		transfers:           append([]Transfer(nil), raw.Transfers...),
	}
	if tx.FeeCurrency == "" {
		tx.FeeCurrency = CurrencyCELO
	}

	if call, ok := calldata.Decode(raw.Input); ok {
		tx.call = &call
		tx.comment = call.Comment()
	}

	nonNative := tx.FeeCurrency != CurrencyCELO
	var carriers []Transfer

	if raw.GatewayFeeRecipient != nil {
		if nonNative {
			carrier, ok := tx.removeLastTo(*raw.GatewayFeeRecipient)
			if !ok {
				return nil, Invariantf("tx %s: gateway fee transfer to %s not found", tx.Hash, raw.GatewayFeeRecipient.Hex())
			}
			carriers = append(carriers, carrier)
		}
		tx.fees = append(tx.fees, Fee{Type: FeeGateway, Value: tx.GatewayFee, CurrencyCode: tx.FeeCurrency})
	}

	security := new(big.Int).Mul(tx.GasUsed, tx.GasPrice)
	if nonNative {
		validator, ok := tx.popLast()
		if !ok {
			return nil, Invariantf("tx %s: validator fee transfer not found", tx.Hash)
		}
		carriers = append(carriers, validator)
		if gov, ok := tx.removeLastTo(governance); ok {
			carriers = append(carriers, gov)
		}
	}
	tx.fees = append(tx.fees, Fee{Type: FeeSecurity, Value: security, CurrencyCode: tx.FeeCurrency})

	if nonNative {
		expected := new(big.Int).Add(security, tx.GatewayFee)
		carried := new(big.Int)
		for _, c := range carriers {
			carried.Add(carried, c.Value)
		}
		if carried.Cmp(expected) != 0 {
			return nil, Invariantf("tx %s: fee transfers sum to %s, want %s", tx.Hash, carried, expected)
		}
	}

	return tx, nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// Transfers returns the transfers remaining after fee extraction.
func (t *Transaction) Transfers() []Transfer {
	return t.transfers
}

func (t *Transaction) Fees() []Fee {
	return t.fees
}

// AddFee merges a fee into the transaction, summing values when a fee of
// the same type and currency already exists.
func (t *Transaction) AddFee(f Fee) {
	for i := range t.fees {
		if t.fees[i].Type == f.Type && t.fees[i].CurrencyCode == f.CurrencyCode {
			t.fees[i].Value = new(big.Int).Add(t.fees[i].Value, f.Value)
			return
		}
	}
	t.fees = append(t.fees, Fee{Type: f.Type, Value: new(big.Int).Set(f.Value), CurrencyCode: f.CurrencyCode})
}

// Call returns the decoded contract call selected by the input's leading
// four bytes, or nil when the input is empty or unrecognized.
func (t *Transaction) Call() *calldata.Call {
	return t.call
}

// CallsContract reports whether the input decodes to a known function of
// the given system-contract kind.
func (t *Transaction) CallsContract(kind calldata.ContractKind) bool {
	return t.call != nil && t.call.Method.Kind == kind
}

// Comment returns the decoded transfer comment, empty when the input does
// not encode a transfer-with-comment call.
func (t *Transaction) Comment() string {
	return t.comment
}

// TransfersTo returns the transfers addressed to addr, in list order.
func (t *Transaction) TransfersTo(addr common.Address) []Transfer {
	var out []Transfer
	for _, tr := range t.transfers {
		if tr.To == addr {
			out = append(out, tr)
		}
	}
	return out
}

// TransfersFrom returns the transfers originating from addr, in list order.
func (t *Transaction) TransfersFrom(addr common.Address) []Transfer {
	var out []Transfer
	for _, tr := range t.transfers {
		if tr.From == addr {
			out = append(out, tr)
		}
	}
	return out
}

// popLast removes and returns the last transfer.
func (t *Transaction) popLast() (Transfer, bool) {
	if len(t.transfers) == 0 {
		return Transfer{}, false
	}
	last := t.transfers[len(t.transfers)-1]
	t.transfers = t.transfers[:len(t.transfers)-1]
	return last, true
}

// removeLastTo removes the first transfer to addr found scanning from the
// end. Fee carriers are guaranteed by the chain to trail the list, so the
// match must run back-to-front.
func (t *Transaction) removeLastTo(addr common.Address) (Transfer, bool) {
	for i := len(t.transfers) - 1; i >= 0; i-- {
		if t.transfers[i].To == addr {
			match := t.transfers[i]
			t.transfers = append(t.transfers[:i], t.transfers[i+1:]...)
			return match, true
		}
	}
	return Transfer{}, false
}
