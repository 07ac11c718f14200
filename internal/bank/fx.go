package bank

import (
	"strings"

	"github.com/shopspring/decimal"
)

type currencyPair struct{ from, to string }

// RateTable holds direct FX rates. Reverse pairs are derived.
type RateTable struct {
	rates map[currencyPair]decimal.Decimal
}

var defaultRates = map[string]string{
	"USD/BDT": "110.50",
	"EUR/BDT": "120.30",
	"GBP/BDT": "140.20",
	"CNY/BDT": "15.20",
	"JPY/BDT": "0.74",
	"SGD/BDT": "82.10",
	"INR/BDT": "1.33",
	"USD/EUR": "0.92",
}

func DefaultRateTable() *RateTable {
	t := &RateTable{rates: make(map[currencyPair]decimal.Decimal, len(defaultRates))}
	for pair, rate := range defaultRates {
		parts := strings.SplitN(pair, "/", 2)
		t.Set(parts[0], parts[1], decimal.RequireFromString(rate))
	}
	return t
}

func (t *RateTable) Set(from, to string, rate decimal.Decimal) {
	t.rates[currencyPair{strings.ToUpper(from), strings.ToUpper(to)}] = rate
}

// Rate returns the rate for from→to. Identity pairs are 1, reverse pairs are
// the inverse rounded to 6 places and unknown pairs default to 1.
func (t *RateTable) Rate(from, to string) decimal.Decimal {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1)
	}
	if r, ok := t.rates[currencyPair{from, to}]; ok {
		return r
	}
	if r, ok := t.rates[currencyPair{to, from}]; ok && !r.IsZero() {
		return decimal.NewFromInt(1).DivRound(r, 6)
	}
	return decimal.NewFromInt(1)
}

// Convert returns amount × rate rounded to 2 places, along with the rate used.
func (t *RateTable) Convert(from, to string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	rate := t.Rate(from, to)
	return amount.Mul(rate).Round(2), rate
}
