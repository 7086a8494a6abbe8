//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/store/postgres"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepo_UpsertAndFind(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewTokenRepo(db)
	ctx := context.Background()

	addr := common.HexToAddress("0x765DE816845861e75A25fCA122bb6898B8B1282a")
	token := &model.Token{
		Address:      addr,
		Symbol:       model.CurrencyCUSD,
		Name:         "Celo Dollar",
		Decimals:     18,
		TokenType:    model.TokenFungible,
		PegCode:      model.CurrencyUSD,
		OracleBacked: true,
	}
	require.NoError(t, repo.Upsert(ctx, token))
	assert.NotEqual(t, uuid.Nil, token.ID)

	found, err := repo.FindByAddress(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, token.ID, found.ID)
	assert.Equal(t, addr, found.Address)
	assert.Equal(t, model.CurrencyCUSD, found.Symbol)
	assert.Equal(t, model.CurrencyUSD, found.PegCode)
	assert.True(t, found.OracleBacked)
}

func TestTokenRepo_UpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewTokenRepo(db)
	ctx := context.Background()

	addr := common.HexToAddress("0x471EcE3750Da237f93B8E339c536989b8978a438")
	first := &model.Token{Address: addr, Symbol: model.CurrencyCELO, Name: "Celo", Decimals: 18, TokenType: model.TokenFungible}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.Token{Address: addr, Symbol: model.CurrencyCELO, Name: "Celo Native Asset", Decimals: 18, TokenType: model.TokenFungible, OracleBacked: true}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID, "upsert must keep the original row")

	found, err := repo.FindByAddress(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Celo Native Asset", found.Name)
	assert.True(t, found.OracleBacked)
}

func TestTokenRepo_List(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewTokenRepo(db)
	ctx := context.Background()

	tokens := []*model.Token{
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000101"), Symbol: "AAA", Decimals: 18, TokenType: model.TokenFungible},
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000102"), Symbol: "BBB", Decimals: 6, TokenType: model.TokenFungible},
	}
	for _, tok := range tokens {
		require.NoError(t, repo.Upsert(ctx, tok))
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)

	bySymbol := make(map[model.CurrencyCode]model.Token)
	for _, tok := range listed {
		bySymbol[tok.Symbol] = tok
	}
	assert.Contains(t, bySymbol, model.CurrencyCode("AAA"))
	assert.Contains(t, bySymbol, model.CurrencyCode("BBB"))
	assert.Equal(t, 6, bySymbol["BBB"].Decimals)
}

func TestTokenRepo_FindMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewTokenRepo(db)

	found, err := repo.FindByAddress(context.Background(),
		common.HexToAddress("0x00000000000000000000000000000000000000ff"))
	require.NoError(t, err)
	assert.Nil(t, found)
}
