package main

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/castlemilk/finsight/internal/store"
	"github.com/spf13/cobra"
)

func demoCmd() *cobra.Command {
	var (
		months int
		seed   int64
		budget float64
		income float64
		only   string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Analyze generated demo spending",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := analysisTime()
			if err != nil {
				return err
			}
			st := store.NewMemoryStore()
			if err := seedDemo(cmd.Context(), st, demoOptions{
				userID: userID,
				now:    now,
				months: months,
				budget: budget,
				income: income,
				rng:    rand.New(rand.NewSource(seed)),
			}); err != nil {
				return err
			}
			result, err := runAnalysis(cmd.Context(), st, now)
			if err != nil {
				return err
			}
			view, err := selectView(result, only)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().IntVar(&months, "months", 6, "months of history to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().Float64Var(&budget, "budget", 2500, "monthly budget, 0 for none")
	cmd.Flags().Float64Var(&income, "income", 5200, "monthly salary, 0 for none")
	cmd.Flags().StringVar(&only, "only", "", "print a single component")
	return cmd
}

type expenseTemplate struct {
	store     string
	minAmount float64
	maxAmount float64
	category  string
}

var monthlyBills = []expenseTemplate{
	{"Comcast Internet", 89, 89, model.CategoryBills},
	{"Electricity bill", 120, 220, model.CategoryBills},
	{"Verizon", 65, 85, model.CategoryBills},
	{"Netflix", 22.99, 22.99, model.CategoryEntertainment},
	{"Spotify", 12.99, 12.99, model.CategoryEntertainment},
	{"Gym membership", 65, 65, model.CategoryEntertainment},
}

var weeklyExpenses = []expenseTemplate{
	{"Kroger", 80, 200, model.CategoryFood},
	{"Shell", 55, 110, model.CategoryTravel},
}

var randomExpenses = []expenseTemplate{
	{"Starbucks", 4.5, 8, model.CategoryFood},
	{"Corner Cafe", 15, 35, model.CategoryFood},
	{"Pizza place", 20, 55, model.CategoryFood},
	{"Uber", 12, 45, model.CategoryTravel},
	{"City parking", 5, 20, model.CategoryTravel},
	{"Cinema", 18, 40, model.CategoryEntertainment},
	{"Amazon", 15, 150, model.CategoryShopping},
	{"Target", 25, 120, model.CategoryShopping},
	{"CVS Pharmacy", 10, 60, model.CategoryHealthcare},
}

// Rare big-ticket purchases that the anomaly detector should pick up.
var splurges = []expenseTemplate{
	{"Best Buy electronics", 600, 1400, model.CategoryShopping},
	{"Airline tickets", 700, 1200, model.CategoryTravel},
}

type demoOptions struct {
	userID string
	now    time.Time
	months int
	budget float64
	income float64
	rng    *rand.Rand
}

// seedDemo fills st with opts.months of spending ending at opts.now, plus
// a salary per month and a budget when those are positive.
func seedDemo(ctx context.Context, st *store.MemoryStore, opts demoOptions) error {
	var txs []*model.Transaction
	add := func(t expenseTemplate, date time.Time) {
		txs = append(txs, &model.Transaction{
			UserID:   opts.userID,
			Store:    t.store,
			Amount:   randomAmount(opts.rng, t.minAmount, t.maxAmount),
			Category: t.category,
			Date:     date,
		})
	}

	start := opts.now.AddDate(0, -opts.months, 0)
	for m := 0; m < opts.months; m++ {
		monthStart := start.AddDate(0, m, 0)
		for _, bill := range monthlyBills {
			add(bill, monthStart.AddDate(0, 0, opts.rng.Intn(28)))
		}
		if m == opts.months/2 {
			add(splurges[opts.rng.Intn(len(splurges))], monthStart.AddDate(0, 0, 10+opts.rng.Intn(10)))
		}
		if opts.income > 0 {
			if err := st.CreateIncome(ctx, &model.Income{
				UserID:      opts.userID,
				Source:      "Acme Corp",
				Category:    "Salary",
				Amount:      opts.income,
				Currency:    "USD",
				Date:        monthStart,
				IsRecurring: true,
			}); err != nil {
				return err
			}
		}
	}
	for d := start; !d.After(opts.now); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday {
			for _, w := range weeklyExpenses {
				add(w, d)
			}
		}
		if opts.rng.Float64() < 0.45 {
			add(randomExpenses[opts.rng.Intn(len(randomExpenses))], d)
		}
	}
	if err := st.BatchCreateTransactions(ctx, txs); err != nil {
		return err
	}

	if opts.budget > 0 {
		return st.UpsertBudget(ctx, &model.Budget{
			UserID:         opts.userID,
			MonthlyLimit:   opts.budget,
			Currency:       "USD",
			AlertThreshold: 80,
		})
	}
	return nil
}

func randomAmount(rng *rand.Rand, lo, hi float64) float64 {
	v := lo + rng.Float64()*(hi-lo)
	return math.Round(v*100) / 100
}
