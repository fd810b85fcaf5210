package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	userID     string
	start, end time.Time
}

type fakeSource struct {
	mu      sync.Mutex
	txs     []*model.Transaction
	budget  *model.Budget
	income  float64
	txErr   error
	budErr  error
	incErr  error
	fetches []fetchCall
}

func (f *fakeSource) FetchTransactions(_ context.Context, userID string, start, end time.Time) ([]*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, fetchCall{userID, start, end})
	if f.txErr != nil {
		return nil, f.txErr
	}
	var out []*model.Transaction
	for _, tx := range f.txs {
		if !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchBudget(context.Context, string) (*model.Budget, error) {
	return f.budget, f.budErr
}

func (f *fakeSource) FetchIncome(context.Context, string, time.Time) (float64, error) {
	return f.income, f.incErr
}

// sixMonthsOfGroceries returns one 100.00 Food purchase per month for the
// six months up to testNow.
func sixMonthsOfGroceries() []*model.Transaction {
	var txs []*model.Transaction
	for m := 0; m < 6; m++ {
		txs = append(txs, tx("g", 100, model.CategoryFood, testNow.AddDate(0, -m, -1)))
	}
	return txs
}

func insightTitles(insights []Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Title
	}
	return out
}

func newTestAnalyzer(src Source, opts ...Option) *Analyzer {
	return NewAnalyzer(src, append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestAnalyzer_Run(t *testing.T) {
	src := &fakeSource{txs: sixMonthsOfGroceries()}
	result, err := newTestAnalyzer(src).Run(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, src.fetches, 1, "history is fetched once")
	assert.Equal(t, MonthsAgo(testNow, 12), src.fetches[0].start)
	assert.Equal(t, testNow, src.fetches[0].end)

	assert.Equal(t, 6, result.Aggregation.MonthsAnalyzed)
	assert.Equal(t, 600.0, result.Aggregation.OverallTotal)
	assert.Equal(t, 6, result.Forecast.MonthsUsed)
	assert.Equal(t, TrendDecreasing, result.Forecast.Trend)
	assert.Equal(t, 3, result.Anomalies.TotalAnalyzed)
	assert.Empty(t, result.Anomalies.Anomalies)
	assert.Equal(t, []string{"High Food Expenses", "Great Job! Spending is Decreasing"}, titles(result.Advisories))
	require.Len(t, result.Insights, 3)
	assert.Equal(t, "Spending Overview", result.Insights[0].Title)
	assert.Equal(t, "Next Month Forecast", result.Insights[1].Title)
	assert.Equal(t, "Top Spending Category", result.Insights[2].Title)
	assert.Equal(t, DataQualityGood, result.DataQuality)
	assert.Equal(t, testNow, result.GeneratedAt)
}

func TestAnalyzer_RunWithBudgetAndIncome(t *testing.T) {
	txs := sixMonthsOfGroceries()
	txs = append(txs, tx("splurge", 900, model.CategoryShopping, testNow.Add(-time.Hour)))
	src := &fakeSource{txs: txs, budget: &model.Budget{MonthlyLimit: 1000}, income: 50}

	result, err := newTestAnalyzer(src).Run(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Contains(t, titles(result.Advisories), "Spending May Exceed Income")
	assert.Contains(t, titles(result.Advisories), "Approaching Budget Limit")
	last := result.Insights[len(result.Insights)-1]
	assert.Equal(t, "Important Alert", last.Title)
	assert.Equal(t, result.Advisories[0].Message, last.Text)
}

func TestAnalyzer_RunEmptyHistory(t *testing.T) {
	result, err := newTestAnalyzer(&fakeSource{}).Run(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, result.Aggregation.OverallTotal)
	assert.Equal(t, ConfidenceLow, result.Forecast.Confidence)
	assert.Empty(t, result.Advisories)
	assert.Empty(t, result.Insights)
	assert.Equal(t, DataQualityLimited, result.DataQuality)
}

func TestAnalyzer_RunInsightsFollowRecentWindow(t *testing.T) {
	day := 24 * time.Hour
	src := &fakeSource{txs: []*model.Transaction{
		tx("a", 100, model.CategoryFood, testNow.Add(-100*day)),
		tx("b", 100, model.CategoryFood, testNow.Add(-130*day)),
		tx("c", 100, model.CategoryFood, testNow.Add(-160*day)),
	}}

	result, err := newTestAnalyzer(src).Run(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 300.0, result.Aggregation.OverallTotal)
	assert.Equal(t, DataQualityLimited, result.DataQuality)
	assert.NotContains(t, insightTitles(result.Insights), "Spending Overview")
	assert.NotContains(t, insightTitles(result.Insights), "Top Spending Category")
}

func TestAnalyzer_PropagatesSourceErrors(t *testing.T) {
	boom := errors.New("datastore unavailable")
	for name, src := range map[string]*fakeSource{
		"transactions": {txErr: boom},
		"budget":       {budErr: boom},
		"income":       {incErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := newTestAnalyzer(src).Run(context.Background(), "user-1")
			assert.Nil(t, result)
			assert.Same(t, boom, err)
		})
	}
}

func TestAnalyzer_RejectsBadRecords(t *testing.T) {
	src := &fakeSource{txs: []*model.Transaction{tx("bad", -10, model.CategoryFood, testNow.Add(-time.Hour))}}
	_, err := newTestAnalyzer(src).Run(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzer_Validation(t *testing.T) {
	_, err := newTestAnalyzer(&fakeSource{}).Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	w := DefaultWindows()
	w.ForecastMonths = 30
	_, err = newTestAnalyzer(&fakeSource{}, WithWindows(w)).Run(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = newTestAnalyzer(&fakeSource{}).Aggregation(context.Background(), "user-1", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzer_CustomWindows(t *testing.T) {
	src := &fakeSource{txs: sixMonthsOfGroceries()}
	w := Windows{GeneralMonths: 2, ForecastMonths: 3, AdvisorMonths: 1, AnomalyDays: 10}
	result, err := newTestAnalyzer(src, WithWindows(w)).Run(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, MonthsAgo(testNow, 3), src.fetches[0].start)
	assert.Equal(t, 2, result.Aggregation.LookbackMonths)
	assert.Equal(t, DataQualityLimited, result.DataQuality)
}

func TestAnalyzer_ComponentMethods(t *testing.T) {
	src := &fakeSource{txs: sixMonthsOfGroceries()}
	a := newTestAnalyzer(src)
	ctx := context.Background()

	agg, err := a.Aggregation(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.MonthsAnalyzed)
	assert.Equal(t, MonthsAgo(testNow, 2), src.fetches[0].start)

	forecast, err := a.Forecast(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, forecast.MonthsUsed)

	report, err := a.Anomalies(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalAnalyzed)
	assert.Equal(t, testNow.Add(-90*24*time.Hour), src.fetches[2].start)

	advice, err := a.Advice(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, advice, 2)

	summary, err := a.Insights(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, summary.Insights, 3)
	assert.Equal(t, DataQualityGood, summary.DataQuality)
	assert.Equal(t, testNow, summary.GeneratedAt)
}
