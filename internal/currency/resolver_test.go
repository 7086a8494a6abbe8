package currency

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/currency/mocks"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResolver_GetExchangeRate(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("identity is 1 without any source call", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		r := NewResolver(testUniverse(), mocks.NewMockOracleSource(ctrl), mocks.NewMockFxSource(ctrl), slog.Default())

		rate, err := r.GetExchangeRate(context.Background(), model.CurrencyCUSD, model.CurrencyCUSD, at, nil)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("stable pair is 1 without any source call", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		r := NewResolver(testUniverse(), mocks.NewMockOracleSource(ctrl), mocks.NewMockFxSource(ctrl), slog.Default())

		rate, err := r.GetExchangeRate(context.Background(), model.CurrencyCUSD, model.CurrencyUSD, at, nil)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("oracle token to foreign fiat multiplies one oracle and one fx hop", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		oracle := mocks.NewMockOracleSource(ctrl)
		fx := mocks.NewMockFxSource(ctrl)
		oracle.EXPECT().
			OracleRate(gomock.Any(), model.CurrencyCELO, model.CurrencyUSD, at).
			Return(decimal.RequireFromString("5.30"), nil).
			Times(1)
		fx.EXPECT().
			FxRate(gomock.Any(), model.CurrencyUSD, model.CurrencyEUR, at).
			Return(decimal.RequireFromString("0.90"), nil).
			Times(1)
		r := NewResolver(testUniverse(), oracle, fx, slog.Default())

		rate, err := r.GetExchangeRate(context.Background(), model.CurrencyCELO, model.CurrencyEUR, at, nil)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.RequireFromString("4.77")), "got %s", rate)
	})

	t.Run("rate composes across the USD pivot", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		oracle := mocks.NewMockOracleSource(ctrl)
		fx := mocks.NewMockFxSource(ctrl)
		celoUSD := decimal.RequireFromString("5.30")
		usdBRL := decimal.RequireFromString("4.95")
		oracle.EXPECT().
			OracleRate(gomock.Any(), model.CurrencyCELO, model.CurrencyUSD, at).
			Return(celoUSD, nil).
			Times(2)
		fx.EXPECT().
			FxRate(gomock.Any(), model.CurrencyUSD, model.CurrencyBRL, at).
			Return(usdBRL, nil).
			Times(2)
		r := NewResolver(testUniverse(), oracle, fx, slog.Default())

		direct, err := r.GetExchangeRate(context.Background(), model.CurrencyCELO, model.CurrencyBRL, at, nil)
		require.NoError(t, err)

		hop1, err := r.GetExchangeRate(context.Background(), model.CurrencyCELO, model.CurrencyUSD, at, nil)
		require.NoError(t, err)
		hop2, err := r.GetExchangeRate(context.Background(), model.CurrencyUSD, model.CurrencyBRL, at, nil)
		require.NoError(t, err)

		assert.True(t, direct.Equal(hop1.Mul(hop2)))
	})

	t.Run("caller override beats every derived rate", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		r := NewResolver(testUniverse(), mocks.NewMockOracleSource(ctrl), mocks.NewMockFxSource(ctrl), slog.Default())

		executed := decimal.RequireFromString("5.1234")
		overrides := map[Pair]decimal.Decimal{
			{From: model.CurrencyCELO, To: model.CurrencyCUSD}: executed,
		}
		rate, err := r.GetExchangeRate(context.Background(), model.CurrencyCELO, model.CurrencyCUSD, at, overrides)
		require.NoError(t, err)
		assert.True(t, rate.Equal(executed))
	})

	t.Run("a missing hop fails the whole conversion", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		oracle := mocks.NewMockOracleSource(ctrl)
		fx := mocks.NewMockFxSource(ctrl)
		srcErr := errors.New("provider down")
		oracle.EXPECT().
			OracleRate(gomock.Any(), model.CurrencyCELO, model.CurrencyUSD, at).
			Return(decimal.Zero, srcErr)
		r := NewResolver(testUniverse(), oracle, fx, slog.Default())

		_, err := r.GetExchangeRate(context.Background(), model.CurrencyCELO, model.CurrencyEUR, at, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, srcErr)
		assert.Contains(t, err.Error(), "resolve hop CELO/USD")
	})
}

func TestResolver_Convert(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockOracleSource(ctrl)
	oracle.EXPECT().
		OracleRate(gomock.Any(), model.CurrencyCELO, model.CurrencyUSD, at).
		Return(decimal.RequireFromString("5.00"), nil)
	r := NewResolver(testUniverse(), oracle, mocks.NewMockFxSource(ctrl), slog.Default())

	got, err := r.Convert(context.Background(), decimal.RequireFromString("2.5"), model.CurrencyCELO, model.CurrencyUSD, at, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("12.5")))
}
