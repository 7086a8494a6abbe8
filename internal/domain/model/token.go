package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Token is a supported-token registry entry. Transactions referencing
// tokens outside the registry are filtered upstream of classification.
type Token struct {
	ID           uuid.UUID
	Address      common.Address
	Symbol       CurrencyCode
	Name         string
	Decimals     int
	TokenType    TokenType
	PegCode      CurrencyCode // fiat code this token tracks 1:1, empty when none
	OracleBacked bool         // priced by the on-chain oracle rather than generic FX
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
