package analytics

import "fmt"

// Compose renders the component outputs as display-ready sentences. Each
// entry appears only when its input has something to say.
func Compose(agg *Aggregation, forecast *ForecastResult, anomalies *AnomalyReport, advice []Advisory) []Insight {
	insights := make([]Insight, 0, 5)

	if agg != nil && agg.MonthsAnalyzed > 0 {
		insights = append(insights, Insight{
			Title: "Spending Overview",
			Text: fmt.Sprintf("Over the last %d months, you've spent an average of $%.2f per month, totaling $%.2f.",
				agg.MonthsAnalyzed, agg.AverageMonthly, agg.OverallTotal),
		})
	}

	if forecast.Sufficient() {
		insights = append(insights, Insight{
			Title: "Next Month Forecast",
			Text: fmt.Sprintf("Based on your spending pattern, you're likely to spend $%.2f next month. Your spending trend is %s.",
				forecast.PredictedAmount, forecast.Trend),
		})
	}

	if agg != nil {
		if top, ok := agg.CategoryTotals.Max(); ok {
			insights = append(insights, Insight{
				Title: "Top Spending Category",
				Text: fmt.Sprintf("Your highest expense category is %s at $%.2f (%.1f%% of total spending).",
					top.Key, top.Amount, share(top.Amount, agg.OverallTotal)),
			})
		}
	}

	if anomalies != nil && len(anomalies.Anomalies) > 0 {
		insights = append(insights, Insight{
			Title: "Unusual Transactions",
			Text: fmt.Sprintf("Found %d unusually high transactions. The threshold for normal spending is $%.2f.",
				len(anomalies.Anomalies), anomalies.Threshold),
		})
	}

	for _, a := range advice {
		if a.Priority == PriorityHigh {
			insights = append(insights, Insight{Title: "Important Alert", Text: a.Message})
			break
		}
	}

	return insights
}

// QualityOf grades how much history backs the analysis.
func QualityOf(agg *Aggregation) DataQuality {
	if agg != nil && agg.MonthsAnalyzed >= minForecastMonths {
		return DataQualityGood
	}
	return DataQualityLimited
}
