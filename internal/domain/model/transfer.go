package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type TokenType string

const (
	TokenFungible    TokenType = "FUNGIBLE"
	TokenNonFungible TokenType = "NON_FUNGIBLE"
)

// ZeroAddress is the mint/burn counterparty on token transfers.
var ZeroAddress = common.Address{}

// Transfer is one token movement inside a transaction. Value is in base
// units and never negative; display scaling happens only in the event
// builder using the token's decimal count.
type Transfer struct {
	From         common.Address
	To           common.Address
	FromAccount  common.Address // account controlling the from wallet, zero when unknown
	ToAccount    common.Address
	TokenAddress common.Address
	Value        *big.Int
	TokenType    TokenType
	TokenID      *big.Int // set for non-fungible transfers
}

func (t Transfer) Fungible() bool {
	return t.TokenType != TokenNonFungible
}

// Minted reports whether the transfer originates from the zero address.
func (t Transfer) Minted() bool {
	return t.From == ZeroAddress
}

// Burned reports whether the transfer is addressed to the zero address.
func (t Transfer) Burned() bool {
	return t.To == ZeroAddress
}
