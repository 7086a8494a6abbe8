package engine

import (
	"math/big"
	"testing"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// decimalFromBase scales a base-unit value by the 18 decimals every
// fungible fixture token uses.
func decimalFromBase(v int64) decimal.Decimal {
	return decimal.NewFromBigInt(big.NewInt(v), -18)
}

// Shared fixtures for the engine tests. Addresses are arbitrary but
// stable so failures print recognizable values.
var (
	userAddr         = common.HexToAddress("0x1000000000000000000000000000000000000001")
	otherAddr        = common.HexToAddress("0x1000000000000000000000000000000000000002")
	intermediateAddr = common.HexToAddress("0x1000000000000000000000000000000000000003")

	escrowAddr       = common.HexToAddress("0xe000000000000000000000000000000000000001")
	exchangeAddr     = common.HexToAddress("0xe000000000000000000000000000000000000002")
	reserveAddr      = common.HexToAddress("0xe000000000000000000000000000000000000003")
	governanceAddr   = common.HexToAddress("0xe000000000000000000000000000000000000004")
	attestationsAddr = common.HexToAddress("0xe000000000000000000000000000000000000005")

	celoTokenAddr = common.HexToAddress("0xc000000000000000000000000000000000000001")
	cusdTokenAddr = common.HexToAddress("0xc000000000000000000000000000000000000002")
	nftTokenAddr  = common.HexToAddress("0xc000000000000000000000000000000000000003")
)

var batchTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testContracts() *registry.Contracts {
	return &registry.Contracts{
		Escrow:       escrowAddr,
		Exchange:     exchangeAddr,
		Reserve:      reserveAddr,
		Governance:   governanceAddr,
		Attestations: attestationsAddr,
	}
}

func testTokens() []model.Token {
	return []model.Token{
		{Address: celoTokenAddr, Symbol: model.CurrencyCELO, Decimals: 18, TokenType: model.TokenFungible, OracleBacked: true},
		{Address: cusdTokenAddr, Symbol: model.CurrencyCUSD, Decimals: 18, TokenType: model.TokenFungible, PegCode: model.CurrencyUSD, OracleBacked: true},
		{Address: nftTokenAddr, Symbol: "CNFT", Decimals: 0, TokenType: model.TokenNonFungible},
	}
}

func testContext() *Context {
	return &Context{
		UserAddress: userAddr,
		Contracts:   testContracts(),
		Tokens:      registry.NewSnapshot(testTokens()),
	}
}

func fungible(from, to, token common.Address, value *big.Int) model.Transfer {
	return model.Transfer{
		From:         from,
		To:           to,
		TokenAddress: token,
		Value:        value,
		TokenType:    model.TokenFungible,
	}
}

func nft(from, to common.Address, tokenID int64) model.Transfer {
	return model.Transfer{
		From:         from,
		To:           to,
		TokenAddress: nftTokenAddr,
		Value:        big.NewInt(1),
		TokenType:    model.TokenNonFungible,
		TokenID:      big.NewInt(tokenID),
	}
}

// mustTx builds a native-fee transaction so no carrier extraction runs.
// Gas is gasUsed=5 at the given price, making the security fee easy to
// steer per test.
func mustTx(t *testing.T, hash string, gasPrice int64, input []byte, transfers ...model.Transfer) *model.Transaction {
	t.Helper()
	tx, err := model.NewTransaction(model.RawTransaction{
		Hash:      hash,
		Block:     1500,
		Timestamp: batchTime,
		GasPrice:  big.NewInt(gasPrice),
		GasUsed:   big.NewInt(5),
		Input:     input,
		Transfers: transfers,
	}, governanceAddr)
	require.NoError(t, err)
	return tx
}
