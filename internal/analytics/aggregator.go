package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/shopspring/decimal"
)

const (
	MinLookbackMonths = 1
	MaxLookbackMonths = 24

	// Windows use a fixed 30-day month, not calendar months.
	daysPerMonth = 30
	day          = 24 * time.Hour
)

// PeriodKey returns the YYYY-MM bucket for t.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthsAgo returns the start of a lookback window of the given number of
// 30-day months ending at now.
func MonthsAgo(now time.Time, months int) time.Time {
	return now.Add(-time.Duration(months*daysPerMonth) * day)
}

// Aggregate groups the transactions dated within the last lookbackMonths
// (30-day months, inclusive of now) by calendar month and by category.
// Any malformed record rejects the whole call.
func Aggregate(txs []*model.Transaction, lookbackMonths int, now time.Time) (*Aggregation, error) {
	if lookbackMonths < MinLookbackMonths || lookbackMonths > MaxLookbackMonths {
		return nil, invalid("lookback_months", "must be between %d and %d, got %d",
			MinLookbackMonths, MaxLookbackMonths, lookbackMonths)
	}
	if err := validateTransactions(txs); err != nil {
		return nil, err
	}

	start := MonthsAgo(now, lookbackMonths)
	periods := make(map[string]decimal.Decimal)
	categories := make(map[string]decimal.Decimal)
	overall := decimal.Zero

	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(now) {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)
		key := PeriodKey(tx.Date)
		periods[key] = periods[key].Add(amount)
		categories[tx.Category] = categories[tx.Category].Add(amount)
		overall = overall.Add(amount)
	}

	agg := &Aggregation{
		PeriodTotals:   sortedTotals(periods),
		CategoryTotals: sortedTotals(categories),
		OverallTotal:   overall.Round(2).InexactFloat64(),
		MonthsAnalyzed: len(periods),
		LookbackMonths: lookbackMonths,
	}
	if len(periods) > 0 {
		agg.AverageMonthly = overall.Div(decimal.NewFromInt(int64(len(periods)))).Round(2).InexactFloat64()
	}
	return agg, nil
}

// WithinDays keeps the transactions dated in [now-days, now]. Nil records
// are kept so that the consumer rejects them.
func WithinDays(txs []*model.Transaction, days int, now time.Time) []*model.Transaction {
	start := now.Add(-time.Duration(days) * day)
	out := make([]*model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil || (!tx.Date.Before(start) && !tx.Date.After(now)) {
			out = append(out, tx)
		}
	}
	return out
}

// sortedTotals orders keys ascending. For YYYY-MM keys that is chronological.
func sortedTotals(sums map[string]decimal.Decimal) Totals {
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	totals := make(Totals, 0, len(keys))
	for _, k := range keys {
		totals = append(totals, Total{Key: k, Amount: sums[k].Round(2).InexactFloat64()})
	}
	return totals
}

func validateTransactions(txs []*model.Transaction) error {
	for i, tx := range txs {
		field := fmt.Sprintf("transactions[%d]", i)
		switch {
		case tx == nil:
			return invalid(field, "record is missing")
		case math.IsNaN(tx.Amount):
			return invalid(field+".amount", "amount is missing")
		case math.IsInf(tx.Amount, 0):
			return invalid(field+".amount", "amount is not finite")
		case tx.Amount <= 0:
			return invalid(field+".amount", "amount must be positive, got %.2f", tx.Amount)
		case !wholeCents(tx.Amount):
			return invalid(field+".amount", "amount must be in whole cents, got %v", tx.Amount)
		case tx.Date.IsZero():
			return invalid(field+".date", "date is missing")
		}
	}
	return nil
}

// wholeCents reports whether amount has at most two decimal places.
func wholeCents(amount float64) bool {
	d := decimal.NewFromFloat(amount)
	return d.Equal(d.Round(2))
}
