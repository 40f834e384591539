package enums

// Currency is an ISO 4217 currency code. GHS is the base currency all prices
// are stored in; everything else is a display projection.
type Currency string

const (
	CurrencyGHS Currency = "GHS"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyEUR Currency = "EUR"
	CurrencyNGN Currency = "NGN"
)

// BaseCurrency is the denomination prices are persisted in.
const BaseCurrency = CurrencyGHS

var knownCurrencies = []Currency{
	CurrencyGHS,
	CurrencyUSD,
	CurrencyGBP,
	CurrencyEUR,
	CurrencyNGN,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsKnown reports whether the currency is one we publish rates for. Unknown
// codes are still accepted by the API; they resolve to rate 1 at lookup time.
func (c Currency) IsKnown() bool {
	for _, candidate := range knownCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes a raw header value into a Currency. Empty values
// fall back to the base currency; unknown codes pass through unchanged so the
// rate table can decide what they convert at.
func ParseCurrency(value string) Currency {
	if value == "" {
		return BaseCurrency
	}
	return Currency(value)
}
