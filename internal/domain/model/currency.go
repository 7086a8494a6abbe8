package model

// CurrencyCode identifies a token or fiat currency in conversion paths.
type CurrencyCode string

const (
	// Native asset. Gas paid in CELO never shows up as extra transfers.
	CurrencyCELO CurrencyCode = "CELO"

	// Stable tokens tracked by the on-chain oracle.
	CurrencyCUSD  CurrencyCode = "cUSD"
	CurrencyCEUR  CurrencyCode = "cEUR"
	CurrencyCREAL CurrencyCode = "cREAL"

	// Fiat codes resolved through the generic FX source.
	CurrencyUSD CurrencyCode = "USD"
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyBRL CurrencyCode = "BRL"
)

func (c CurrencyCode) String() string {
	return string(c)
}
