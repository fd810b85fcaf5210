package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func tx(id string, amount float64, category string, date time.Time) *model.Transaction {
	return &model.Transaction{ID: id, UserID: "user-1", Amount: amount, Category: category, Date: date}
}

func on(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestAggregate(t *testing.T) {
	txs := []*model.Transaction{
		tx("a", 50.10, model.CategoryFood, on(2024, 6, 10)),
		tx("b", 20.20, model.CategoryOther, on(2024, 6, 1)),
		tx("c", 100, model.CategoryFood, on(2024, 5, 20)),
		tx("d", 30, model.CategoryEntertainment, on(2024, 3, 1)),
		tx("too-old", 999, model.CategoryFood, on(2023, 11, 1)),
		tx("future", 10, model.CategoryFood, on(2024, 6, 20)),
	}

	agg, err := Aggregate(txs, 6, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03", "2024-05", "2024-06"}, agg.PeriodTotals.Keys())
	june, ok := agg.PeriodTotals.Get("2024-06")
	require.True(t, ok)
	assert.Equal(t, 70.3, june)

	assert.Equal(t, []string{"Entertainment", "Food", "Other"}, agg.CategoryTotals.Keys())
	food, _ := agg.CategoryTotals.Get(model.CategoryFood)
	assert.Equal(t, 150.1, food)

	assert.Equal(t, 200.3, agg.OverallTotal)
	assert.Equal(t, 3, agg.MonthsAnalyzed)
	assert.Equal(t, 66.77, agg.AverageMonthly)
	assert.Equal(t, 6, agg.LookbackMonths)
}

func TestAggregate_TotalsAreConsistent(t *testing.T) {
	var txs []*model.Transaction
	var inWindow float64
	categories := []string{model.CategoryFood, model.CategoryBills, model.CategoryTravel, model.CategoryShopping}
	for i := 0; i < 120; i++ {
		amount := float64((i%17)*333+i+1) / 100
		date := testNow.Add(-time.Duration(i*40) * time.Hour)
		txs = append(txs, tx("t", amount, categories[i%len(categories)], date))
		if !date.Before(MonthsAgo(testNow, 4)) {
			inWindow += amount
		}
	}

	agg, err := Aggregate(txs, 4, testNow)
	require.NoError(t, err)
	assert.InDelta(t, inWindow, agg.OverallTotal, 1e-6)
	assert.InDelta(t, agg.OverallTotal, agg.CategoryTotals.Sum(), 1e-6)
	assert.InDelta(t, agg.OverallTotal, agg.PeriodTotals.Sum(), 1e-6)
}

func TestAggregate_WindowBoundaryIsInclusive(t *testing.T) {
	start := MonthsAgo(testNow, 1)
	assert.Equal(t, testNow.Add(-30*24*time.Hour), start)

	txs := []*model.Transaction{
		tx("start", 10, model.CategoryOther, start),
		tx("now", 5, model.CategoryOther, testNow),
		tx("before", 99, model.CategoryOther, start.Add(-time.Second)),
	}
	agg, err := Aggregate(txs, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, 15.0, agg.OverallTotal)
}

func TestAggregate_Empty(t *testing.T) {
	for _, txs := range [][]*model.Transaction{nil, {tx("old", 10, model.CategoryFood, on(2020, 1, 1))}} {
		agg, err := Aggregate(txs, 6, testNow)
		require.NoError(t, err)
		assert.Zero(t, agg.OverallTotal)
		assert.Zero(t, agg.MonthsAnalyzed)
		assert.Zero(t, agg.AverageMonthly)
		assert.Empty(t, agg.PeriodTotals)
		assert.Empty(t, agg.CategoryTotals)
	}
}

func TestAggregate_InvalidInput(t *testing.T) {
	valid := tx("ok", 1, model.CategoryFood, testNow)

	tests := []struct {
		name     string
		txs      []*model.Transaction
		lookback int
		field    string
	}{
		{"zero lookback", nil, 0, "lookback_months"},
		{"negative lookback", nil, -3, "lookback_months"},
		{"lookback above maximum", nil, 25, "lookback_months"},
		{"nil record", []*model.Transaction{valid, nil}, 6, "transactions[1]"},
		{"negative amount", []*model.Transaction{tx("x", -5, model.CategoryFood, testNow)}, 6, "transactions[0].amount"},
		{"zero amount", []*model.Transaction{valid, tx("x", 0, model.CategoryFood, testNow)}, 6, "transactions[1].amount"},
		{"fraction of a cent", []*model.Transaction{tx("a", 0.004, "A", testNow), tx("b", 0.004, "B", testNow)}, 6, "transactions[0].amount"},
		{"missing amount", []*model.Transaction{tx("x", math.NaN(), model.CategoryFood, testNow)}, 6, "transactions[0].amount"},
		{"infinite amount", []*model.Transaction{tx("x", math.Inf(1), model.CategoryFood, testNow)}, 6, "transactions[0].amount"},
		{"missing date", []*model.Transaction{tx("x", 5, model.CategoryFood, time.Time{})}, 6, "transactions[0].date"},
		// Out-of-window records are still validated.
		{"old negative amount", []*model.Transaction{tx("x", -5, model.CategoryFood, on(2001, 1, 1))}, 6, "transactions[0].amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := Aggregate(tt.txs, tt.lookback, testNow)
			assert.Nil(t, agg)
			require.ErrorIs(t, err, ErrInvalidInput)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAggregate_RejectsDecodedRecordWithoutAmount(t *testing.T) {
	var txs []*model.Transaction
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"x","category":"Food","date":"2024-06-10T00:00:00Z"}]`), &txs))

	agg, err := Aggregate(txs, 6, testNow)
	assert.Nil(t, agg)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "amount must be positive")
}

func TestWithinDays(t *testing.T) {
	txs := []*model.Transaction{
		tx("in", 1, model.CategoryFood, testNow.Add(-89*24*time.Hour)),
		tx("edge", 1, model.CategoryFood, testNow.Add(-90*24*time.Hour)),
		tx("out", 1, model.CategoryFood, testNow.Add(-91*24*time.Hour)),
		tx("future", 1, model.CategoryFood, testNow.Add(time.Hour)),
		nil,
	}
	got := WithinDays(txs, 90, testNow)
	require.Len(t, got, 3)
	assert.Equal(t, "in", got[0].ID)
	assert.Equal(t, "edge", got[1].ID)
	assert.Nil(t, got[2])
}

func TestTotalsJSON(t *testing.T) {
	totals := Totals{{Key: "2024-02", Amount: 10.5}, {Key: "2024-01", Amount: 3}}
	data, err := totals.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-02":10.5,"2024-01":3}`, string(data))
	assert.Equal(t, `{"2024-02":10.5,"2024-01":3}`, string(data))

	var decoded Totals
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, totals, decoded)

	require.NoError(t, decoded.UnmarshalJSON([]byte("null")))
	assert.Nil(t, decoded)
	assert.Error(t, decoded.UnmarshalJSON([]byte(`[1,2]`)))
}
