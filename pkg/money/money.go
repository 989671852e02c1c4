// Package money holds the two-decimal arithmetic used for balances, totals
// and cost basis. Values are stored as float64 but every computation goes
// through shopspring/decimal and is rounded half away from zero.
package money

import "github.com/shopspring/decimal"

const places = 2

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return toFloat(decimal.NewFromFloat(v).Round(places))
}

// Total returns round2(quantity * price).
func Total(quantity int64, price float64) float64 {
	return toFloat(decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(price)).Round(places))
}

// Add returns round2(a + b).
func Add(a, b float64) float64 {
	return toFloat(decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(places))
}

// Sub returns round2(a - b).
func Sub(a, b float64) float64 {
	return toFloat(decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(places))
}

// Mul returns round2(a * b).
func Mul(a, b float64) float64 {
	return toFloat(decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(places))
}

// Sum adds all values and rounds the result once.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return toFloat(total.Round(places))
}

// WeightedAverage merges an existing position (avg, qty) with a purchase of
// addQty units costing addTotal and returns the new per-unit cost basis.
func WeightedAverage(avg float64, qty int64, addTotal float64, addQty int64) float64 {
	newQty := qty + addQty
	if newQty <= 0 {
		return 0
	}
	cost := decimal.NewFromFloat(avg).Mul(decimal.NewFromInt(qty)).Add(decimal.NewFromFloat(addTotal))
	return toFloat(cost.Div(decimal.NewFromInt(newQty)).Round(places))
}

// Percent returns round2(part / whole * 100), or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	w := decimal.NewFromFloat(whole)
	if w.IsZero() {
		return 0
	}
	return toFloat(decimal.NewFromFloat(part).Div(w).Mul(decimal.NewFromInt(100)).Round(places))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
