package analytics

import (
	"fmt"
	"time"

	"github.com/castlemilk/finsight/internal/model"
)

const (
	anomalyAlertCount  = 3
	budgetWarningRatio = 0.9
)

// Advisory category tags.
const (
	TagBudget          = "budget"
	TagSpendingPattern = "spending_pattern"
	TagAnomaly         = "anomaly"
	TagSavings         = "savings"
)

// AdviceInput carries everything the rules look at. Budget and
// MonthlyIncome are optional: a nil budget or a non-positive income skips
// the rules that need them.
type AdviceInput struct {
	Aggregation   *Aggregation
	Forecast      *ForecastResult
	Anomalies     *AnomalyReport
	Budget        *model.Budget
	MonthlyIncome float64
	Now           time.Time
}

// rule returns the messages it wants to add. Rules never see each other's
// output.
type rule func(in AdviceInput) []Advisory

var rules = []rule{
	incomeRule,
	categoryShareRule,
	anomalyRule,
	budgetRule,
	trendRule,
}

// Advise runs every rule in order and concatenates their messages.
func Advise(in AdviceInput) []Advisory {
	advice := make([]Advisory, 0, len(rules))
	for _, r := range rules {
		advice = append(advice, r(in)...)
	}
	return advice
}

func incomeRule(in AdviceInput) []Advisory {
	if in.Forecast == nil || in.MonthlyIncome <= 0 || in.Forecast.PredictedAmount <= in.MonthlyIncome {
		return nil
	}
	return []Advisory{{
		Kind:     KindWarning,
		Category: TagBudget,
		Title:    "Spending May Exceed Income",
		Message: fmt.Sprintf("Based on your spending pattern, you're predicted to spend $%.2f next month, "+
			"which exceeds your current monthly income of $%.2f.", in.Forecast.PredictedAmount, in.MonthlyIncome),
		Recommendation: "Consider reducing discretionary spending or finding additional income sources.",
		Priority:       PriorityHigh,
	}}
}

type shareLimit struct {
	percent        float64
	priority       Priority
	title          string
	recommendation string
	message        func(pct, amount float64) string
}

var shareLimits = map[string]shareLimit{
	model.CategoryFood: {
		percent:        30,
		priority:       PriorityMedium,
		title:          "High Food Expenses",
		recommendation: "Consider meal planning and cooking at home to reduce food costs.",
		message: func(pct, amount float64) string {
			return fmt.Sprintf("Your food spending is %.1f%% of total expenses ($%.2f), which is higher than recommended.", pct, amount)
		},
	},
	model.CategoryEntertainment: {
		percent:        15,
		priority:       PriorityLow,
		title:          "High Entertainment Costs",
		recommendation: "Look for free or low-cost entertainment alternatives.",
		message: func(pct, _ float64) string {
			return fmt.Sprintf("Entertainment expenses are %.1f%% of your total spending.", pct)
		},
	},
}

func categoryShareRule(in AdviceInput) []Advisory {
	if in.Aggregation == nil {
		return nil
	}
	var advice []Advisory
	for _, c := range in.Aggregation.CategoryTotals {
		limit, ok := shareLimits[c.Key]
		if !ok {
			continue
		}
		pct := share(c.Amount, in.Aggregation.OverallTotal)
		if pct <= limit.percent {
			continue
		}
		advice = append(advice, Advisory{
			Kind:           KindSuggestion,
			Category:       TagSpendingPattern,
			Title:          limit.title,
			Message:        limit.message(pct, c.Amount),
			Recommendation: limit.recommendation,
			Priority:       limit.priority,
		})
	}
	return advice
}

func anomalyRule(in AdviceInput) []Advisory {
	if in.Anomalies == nil || len(in.Anomalies.Anomalies) <= anomalyAlertCount {
		return nil
	}
	return []Advisory{{
		Kind:           KindAlert,
		Category:       TagAnomaly,
		Title:          "Frequent High-Value Transactions",
		Message:        fmt.Sprintf("Detected %d unusually high expenses recently.", len(in.Anomalies.Anomalies)),
		Recommendation: "Review these transactions to ensure they align with your financial goals.",
		Priority:       PriorityMedium,
	}}
}

func budgetRule(in AdviceInput) []Advisory {
	if in.Budget == nil || in.Budget.MonthlyLimit <= 0 {
		return nil
	}
	var spent float64
	if in.Aggregation != nil {
		spent, _ = in.Aggregation.PeriodTotals.Get(PeriodKey(in.Now))
	}
	if spent < in.Budget.MonthlyLimit*budgetWarningRatio {
		return nil
	}
	return []Advisory{{
		Kind:           KindWarning,
		Category:       TagBudget,
		Title:          "Approaching Budget Limit",
		Message:        fmt.Sprintf("You've spent $%.2f of your $%.2f monthly budget.", spent, in.Budget.MonthlyLimit),
		Recommendation: "Limit non-essential purchases for the rest of the month.",
		Priority:       PriorityHigh,
	}}
}

func trendRule(in AdviceInput) []Advisory {
	if in.Forecast == nil || in.Forecast.Trend != TrendDecreasing {
		return nil
	}
	return []Advisory{{
		Kind:           KindPositive,
		Category:       TagSavings,
		Title:          "Great Job! Spending is Decreasing",
		Message:        "Your spending trend is downward. Keep up the good work!",
		Recommendation: "Consider saving the extra money or investing it.",
		Priority:       PriorityLow,
	}}
}
