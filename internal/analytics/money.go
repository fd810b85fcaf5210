package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// round2 rounds a currency figure to cents. Only used on component outputs.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// mean computes the arithmetic mean exactly so that a sample of identical
// values yields exactly that value.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}

// populationStdDev is the standard deviation with divisor n.
func populationStdDev(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// share returns part as a percentage of whole, or 0 when whole is not positive.
func share(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}
