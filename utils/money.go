package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to 2 decimal places (banking-style simple round).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Amount coerces a JSON float into the fixed two-decimal representation all
// monetary math runs on.
func Amount(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}
