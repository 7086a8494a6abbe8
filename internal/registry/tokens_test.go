package registry

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	tokens []model.Token
	err    error
	calls  int
}

func (f *fakeTokenRepo) List(ctx context.Context) ([]model.Token, error) {
	f.calls++
	return f.tokens, f.err
}

func (f *fakeTokenRepo) Upsert(ctx context.Context, token *model.Token) error {
	return nil
}

func (f *fakeTokenRepo) FindByAddress(ctx context.Context, address common.Address) (*model.Token, error) {
	return nil, errors.New("not implemented")
}

func testTokens() []model.Token {
	return []model.Token{
		{Address: common.HexToAddress("0x01"), Symbol: model.CurrencyCELO, Decimals: 18},
		{Address: common.HexToAddress("0x02"), Symbol: model.CurrencyCUSD, Decimals: 18, PegCode: model.CurrencyUSD, OracleBacked: true},
	}
}

func TestSnapshot_Lookups(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(testTokens())
	tok, ok := snap.ByAddress(common.HexToAddress("0x02"))
	require.True(t, ok)
	assert.Equal(t, model.CurrencyCUSD, tok.Symbol)

	_, ok = snap.BySymbol(model.CurrencyCELO)
	assert.True(t, ok)

	_, ok = snap.ByAddress(common.HexToAddress("0xff"))
	assert.False(t, ok)
}

func TestSnapshot_KnowsAll(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(testTokens())
	known := model.Transfer{TokenAddress: common.HexToAddress("0x01"), Value: big.NewInt(1)}
	unknown := model.Transfer{TokenAddress: common.HexToAddress("0xff"), Value: big.NewInt(1)}

	assert.True(t, snap.KnowsAll([]model.Transfer{known}))
	assert.False(t, snap.KnowsAll([]model.Transfer{known, unknown}))
	assert.True(t, snap.KnowsAll(nil))
}

func TestTokenRegistry_RefreshSwapsSnapshot(t *testing.T) {
	t.Parallel()

	repo := &fakeTokenRepo{}
	reg := NewTokenRegistry(repo, time.Minute, slog.Default())
	assert.Equal(t, 0, reg.Snapshot().Len())

	repo.tokens = testTokens()
	require.NoError(t, reg.Refresh(context.Background()))
	assert.Equal(t, 2, reg.Snapshot().Len())
}

func TestTokenRegistry_FailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()

	repo := &fakeTokenRepo{tokens: testTokens()}
	reg := NewTokenRegistry(repo, time.Minute, slog.Default())
	require.NoError(t, reg.Refresh(context.Background()))

	repo.err = errors.New("db down")
	assert.Error(t, reg.Refresh(context.Background()))
	assert.Equal(t, 2, reg.Snapshot().Len(), "previous snapshot survives")
}

func TestTokenRegistry_StartFailsOnInitialLoad(t *testing.T) {
	t.Parallel()

	repo := &fakeTokenRepo{err: errors.New("db down")}
	reg := NewTokenRegistry(repo, time.Minute, slog.Default())
	assert.Error(t, reg.Start(context.Background()))
}
