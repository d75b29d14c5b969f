package domain

import "github.com/shopspring/decimal"

var currencyPrecision = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"ISK": 0,
	"HUF": 2,
	"BHD": 3,
	"KWD": 3,
}

// CurrencyPrecision devolve o número de casas decimais da moeda (2 por omissão).
func CurrencyPrecision(code string) int32 {
	if p, ok := currencyPrecision[code]; ok {
		return p
	}
	return 2
}

// RoundMoney arredonda "half away from zero" na precisão da moeda.
func RoundMoney(v decimal.Decimal, currency string) decimal.Decimal {
	return v.Round(CurrencyPrecision(currency))
}

// ClampAmount limita v ao intervalo [0, max].
func ClampAmount(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if max.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}
