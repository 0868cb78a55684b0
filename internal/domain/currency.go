package domain

type Currency string

const (
	CurrencyVES  Currency = "VES"
	CurrencyBRL  Currency = "BRL"
	CurrencyUSD  Currency = "USD"
	CurrencyUSDT Currency = "USDT"
)

var SupportedCurrency = map[Currency]bool{
	CurrencyVES:  true,
	CurrencyBRL:  true,
	CurrencyUSD:  true,
	CurrencyUSDT: true,
}

func ValidCurrency(c Currency) bool { return SupportedCurrency[c] }

// Currencies returns the supported codes in a stable order.
func Currencies() []Currency {
	return []Currency{CurrencyVES, CurrencyBRL, CurrencyUSD, CurrencyUSDT}
}
