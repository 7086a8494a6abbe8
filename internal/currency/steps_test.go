package currency

import (
	"testing"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func testUniverse() *Universe {
	return NewUniverse([]model.Token{
		{Symbol: model.CurrencyCELO, OracleBacked: true},
		{Symbol: model.CurrencyCUSD, PegCode: model.CurrencyUSD, OracleBacked: true},
		{Symbol: model.CurrencyCEUR, PegCode: model.CurrencyEUR, OracleBacked: true},
		{Symbol: model.CurrencyCREAL, PegCode: model.CurrencyBRL, OracleBacked: true},
	})
}

func TestConversionSteps(t *testing.T) {
	t.Parallel()

	u := testUniverse()

	tests := []struct {
		name string
		from model.CurrencyCode
		to   model.CurrencyCode
		want []model.CurrencyCode
	}{
		{
			name: "identity has no hops",
			from: model.CurrencyCUSD,
			to:   model.CurrencyCUSD,
			want: nil,
		},
		{
			name: "stable pair is one direct hop",
			from: model.CurrencyCUSD,
			to:   model.CurrencyUSD,
			want: []model.CurrencyCode{model.CurrencyCUSD, model.CurrencyUSD},
		},
		{
			name: "stable pair reversed",
			from: model.CurrencyEUR,
			to:   model.CurrencyCEUR,
			want: []model.CurrencyCode{model.CurrencyEUR, model.CurrencyCEUR},
		},
		{
			name: "oracle token to USD stays direct",
			from: model.CurrencyCELO,
			to:   model.CurrencyUSD,
			want: []model.CurrencyCode{model.CurrencyCELO, model.CurrencyUSD},
		},
		{
			name: "oracle token to a USD-pegged token stays direct",
			from: model.CurrencyCELO,
			to:   model.CurrencyCUSD,
			want: []model.CurrencyCode{model.CurrencyCELO, model.CurrencyCUSD},
		},
		{
			name: "oracle token to other fiat routes through USD",
			from: model.CurrencyCELO,
			to:   model.CurrencyEUR,
			want: []model.CurrencyCode{model.CurrencyCELO, model.CurrencyUSD, model.CurrencyEUR},
		},
		{
			name: "other fiat to oracle token routes through USD",
			from: model.CurrencyBRL,
			to:   model.CurrencyCELO,
			want: []model.CurrencyCode{model.CurrencyBRL, model.CurrencyUSD, model.CurrencyCELO},
		},
		{
			name: "fiat to fiat is one direct hop",
			from: model.CurrencyUSD,
			to:   model.CurrencyEUR,
			want: []model.CurrencyCode{model.CurrencyUSD, model.CurrencyEUR},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, u.ConversionSteps(tt.from, tt.to))
		})
	}
}

func TestUniverse_PairFacts(t *testing.T) {
	t.Parallel()

	u := testUniverse()

	assert.True(t, u.StablePair(model.CurrencyCUSD, model.CurrencyUSD))
	assert.True(t, u.StablePair(model.CurrencyUSD, model.CurrencyCUSD))
	assert.False(t, u.StablePair(model.CurrencyCUSD, model.CurrencyEUR))

	assert.True(t, u.OracleToken(model.CurrencyCELO))
	assert.False(t, u.OracleToken(model.CurrencyUSD))
}
