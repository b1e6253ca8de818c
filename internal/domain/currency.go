package domain

import "strings"

// Currency is a canonical currency identifier with its minor-unit scale.
type Currency struct {
	Code  string
	Scale int32
}

// The registry resolves ISO-4217 codes plus the non-ISO codes the ledger
// supports. Units are expressed in the smallest denomination (cents,
// satoshis), so Scale records the decimal shift to major units.
var currencies = map[string]Currency{
	"USD": {Code: "USD", Scale: 2},
	"EUR": {Code: "EUR", Scale: 2},
	"GBP": {Code: "GBP", Scale: 2},
	"CHF": {Code: "CHF", Scale: 2},
	"JPY": {Code: "JPY", Scale: 0},
	"AUD": {Code: "AUD", Scale: 2},
	"CAD": {Code: "CAD", Scale: 2},
	"NGN": {Code: "NGN", Scale: 2},
	"KES": {Code: "KES", Scale: 2},
	"BRL": {Code: "BRL", Scale: 2},
	"INR": {Code: "INR", Scale: 2},
	"UAH": {Code: "UAH", Scale: 2},

	// Non-ISO codes.
	"BTC":  {Code: "BTC", Scale: 8},
	"SATS": {Code: "SATS", Scale: 0},
	"ETH":  {Code: "ETH", Scale: 18},
	"USDT": {Code: "USDT", Scale: 6},
}

// ParseCurrency resolves code to a registered currency.
func ParseCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(code)]
	if !ok {
		return Currency{}, &UnknownCurrencyError{Code: code}
	}
	return c, nil
}

func (c Currency) String() string { return c.Code }
