package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(amounts ...float64) *Aggregation {
	agg := &Aggregation{}
	for i, a := range amounts {
		agg.PeriodTotals = append(agg.PeriodTotals, Total{Key: fmt.Sprintf("2023-%02d", i+1), Amount: a})
		agg.OverallTotal += a
	}
	agg.MonthsAnalyzed = len(amounts)
	return agg
}

func TestForecast_UpwardSeries(t *testing.T) {
	f := Forecast(monthly(100, 120, 110, 130, 125, 140))

	assert.Equal(t, 6, f.MonthsUsed)
	assert.Equal(t, ConfidenceHigh, f.Confidence)
	assert.Equal(t, TrendIncreasing, f.Trend)
	assert.InDelta(t, 143.06, f.PredictedAmount, 0.01)
	assert.InDelta(t, 120.83, f.HistoricalAverage, 0.001)
	assert.LessOrEqual(t, f.ConfidenceBand.Low, f.PredictedAmount)
	assert.GreaterOrEqual(t, f.ConfidenceBand.High, f.PredictedAmount)
	assert.Empty(t, f.Message)
}

func TestForecast_SortsPeriodsChronologically(t *testing.T) {
	ordered := monthly(100, 120, 110, 130, 125, 140)
	shuffled := &Aggregation{PeriodTotals: Totals{
		ordered.PeriodTotals[3], ordered.PeriodTotals[0], ordered.PeriodTotals[5],
		ordered.PeriodTotals[1], ordered.PeriodTotals[4], ordered.PeriodTotals[2],
	}}
	assert.Equal(t, Forecast(ordered), Forecast(shuffled))
	assert.Equal(t, "2023-04", shuffled.PeriodTotals[0].Key, "input must not be reordered")
}

func TestForecast_Decreasing(t *testing.T) {
	f := Forecast(monthly(140, 130, 120))
	assert.Equal(t, ConfidenceMedium, f.Confidence)
	assert.Equal(t, TrendDecreasing, f.Trend)
	assert.Less(t, f.PredictedAmount, f.HistoricalAverage)
}

func TestForecast_FlatSeriesIsDecreasing(t *testing.T) {
	f := Forecast(monthly(80, 80, 80, 80))
	assert.Equal(t, 80.0, f.PredictedAmount)
	assert.Equal(t, 80.0, f.HistoricalAverage)
	assert.Equal(t, TrendDecreasing, f.Trend)
	assert.Equal(t, Band{Low: 80, High: 80}, f.ConfidenceBand)
}

func TestForecast_ClampsNegativePrediction(t *testing.T) {
	f := Forecast(monthly(300, 100, 10))
	assert.Zero(t, f.PredictedAmount)
	assert.Zero(t, f.ConfidenceBand.Low)
	assert.GreaterOrEqual(t, f.ConfidenceBand.High, f.PredictedAmount)
	assert.Equal(t, TrendDecreasing, f.Trend)
}

func TestForecast_InsufficientData(t *testing.T) {
	for _, agg := range []*Aggregation{nil, monthly(), monthly(50), monthly(50, 70)} {
		f := Forecast(agg)
		require.NotNil(t, f)
		assert.Equal(t, ConfidenceLow, f.Confidence)
		assert.Zero(t, f.PredictedAmount)
		assert.Equal(t, Band{}, f.ConfidenceBand)
		assert.Empty(t, f.Trend)
		assert.Equal(t, "Not enough data for prediction", f.Message)
		assert.False(t, f.Sufficient())
	}
	assert.Equal(t, 2, Forecast(monthly(50, 70)).MonthsUsed)
}

func TestForecast_Deterministic(t *testing.T) {
	agg := monthly(412.37, 388.02, 455.9, 401.11, 399.99, 470.4, 420.01, 433.33)
	first := Forecast(agg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Forecast(agg))
	}
}
