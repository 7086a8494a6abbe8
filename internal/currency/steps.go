package currency

import (
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
)

// Pair is one conversion hop, ordered.
type Pair struct {
	From model.CurrencyCode
	To   model.CurrencyCode
}

// Universe holds the pair facts conversion routing depends on: which
// token/fiat pairs are pegged 1:1 and which codes are priced by the
// on-chain oracle rather than generic FX.
type Universe struct {
	stable map[Pair]bool
	oracle map[model.CurrencyCode]bool
}

// NewUniverse derives the universe from the supported-token set: a token
// with a peg code forms a 1:1 stable pair with it, and oracle-backed
// tokens route through the oracle source.
func NewUniverse(tokens []model.Token) *Universe {
	u := &Universe{
		stable: make(map[Pair]bool),
		oracle: make(map[model.CurrencyCode]bool),
	}
	for _, t := range tokens {
		if t.PegCode != "" {
			u.stable[Pair{t.Symbol, t.PegCode}] = true
			u.stable[Pair{t.PegCode, t.Symbol}] = true
		}
		if t.OracleBacked {
			u.oracle[t.Symbol] = true
		}
	}
	return u
}

func (u *Universe) StablePair(from, to model.CurrencyCode) bool {
	return u.stable[Pair{from, to}]
}

func (u *Universe) OracleToken(code model.CurrencyCode) bool {
	return u.oracle[code]
}

// usdEquivalent reports whether code is USD itself or a token pegged 1:1
// to USD.
func (u *Universe) usdEquivalent(code model.CurrencyCode) bool {
	return code == model.CurrencyUSD || u.StablePair(code, model.CurrencyUSD)
}

// ConversionSteps returns the ordered hop sequence from one code to
// another. An empty result means identity. Oracle-priced codes route
// through USD because the oracle only quotes against it; everything else
// is one direct hop.
func (u *Universe) ConversionSteps(from, to model.CurrencyCode) []model.CurrencyCode {
	if from == to {
		return nil
	}
	if u.StablePair(from, to) {
		return []model.CurrencyCode{from, to}
	}
	if u.OracleToken(from) || u.OracleToken(to) {
		if u.usdEquivalent(from) || u.usdEquivalent(to) {
			return []model.CurrencyCode{from, to}
		}
		return []model.CurrencyCode{from, model.CurrencyUSD, to}
	}
	return []model.CurrencyCode{from, to}
}
