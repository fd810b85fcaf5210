package analytics

import (
	"math"
	"sort"
)

const (
	// ridgeAlpha is the L2 penalty on the slope. The intercept is not penalised.
	ridgeAlpha = 1.0

	minForecastMonths    = 3
	highConfidenceMonths = 6
)

// Forecast projects next month's total from the aggregation's period totals.
// With fewer than three months it returns a low-confidence zero forecast.
func Forecast(agg *Aggregation) *ForecastResult {
	var periods Totals
	if agg != nil {
		periods = append(periods, agg.PeriodTotals...)
	}
	n := len(periods)
	if n < minForecastMonths {
		return &ForecastResult{
			Confidence: ConfidenceLow,
			MonthsUsed: n,
			Message:    "Not enough data for prediction",
		}
	}

	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Key < periods[j].Key })
	y := make([]float64, n)
	for i, p := range periods {
		y[i] = p.Amount
	}

	fit := fitRidge(y, ridgeAlpha)
	predicted := fit.at(float64(n))

	residuals := make([]float64, n)
	for i, v := range y {
		residuals[i] = v - fit.at(float64(i))
	}
	stdErr := populationStdDev(residuals, mean(residuals))
	historical := mean(y)

	// Spending cannot be negative; keep low <= predicted <= high after clamping.
	point := math.Max(0, predicted)
	band := Band{
		Low:  math.Max(0, predicted-stdErr),
		High: math.Max(point, predicted+stdErr),
	}

	result := &ForecastResult{
		PredictedAmount:   round2(point),
		ConfidenceBand:    Band{Low: round2(band.Low), High: round2(band.High)},
		Confidence:        ConfidenceMedium,
		MonthsUsed:        n,
		HistoricalAverage: round2(historical),
		Trend:             TrendDecreasing,
	}
	if n >= highConfidenceMonths {
		result.Confidence = ConfidenceHigh
	}
	if predicted > historical {
		result.Trend = TrendIncreasing
	}
	return result
}

type linearFit struct {
	slope, intercept float64
}

func (f linearFit) at(x float64) float64 {
	return f.intercept + f.slope*x
}

// fitRidge fits y against x = 0..n-1 minimising squared error plus
// alpha*slope^2. Centering the data leaves the intercept unpenalised.
func fitRidge(y []float64, alpha float64) linearFit {
	n := float64(len(y))
	if n == 0 {
		return linearFit{}
	}
	xMean := (n - 1) / 2
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= n

	var sxx, sxy float64
	for i, v := range y {
		dx := float64(i) - xMean
		sxx += dx * dx
		sxy += dx * (v - yMean)
	}
	slope := sxy / (sxx + alpha)
	return linearFit{slope: slope, intercept: yMean - slope*xMean}
}
