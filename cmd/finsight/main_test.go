package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	userID, nowFlag, logLevel = "cli-user", "", "warn"

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedDemo_Deterministic(t *testing.T) {
	seeded := func() *store.MemoryStore {
		st := store.NewMemoryStore()
		require.NoError(t, seedDemo(context.Background(), st, demoOptions{
			userID: "demo",
			now:    demoNow,
			months: 6,
			budget: 2500,
			income: 5200,
			rng:    rand.New(rand.NewSource(7)),
		}))
		return st
	}
	total := func(st *store.MemoryStore) float64 {
		txs, err := store.NewSource(st).FetchTransactions(context.Background(), "demo", demoNow.AddDate(-1, 0, 0), demoNow)
		require.NoError(t, err)
		var sum float64
		for _, tx := range txs {
			sum += tx.Amount
		}
		return sum
	}

	a, b := seeded(), seeded()
	assert.Equal(t, total(a), total(b))
	assert.Greater(t, total(a), 0.0)

	budget, err := a.GetBudget(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, budget.MonthlyLimit)

	income, err := store.NewSource(a).FetchIncome(context.Background(), "demo", demoNow)
	require.NoError(t, err)
	assert.Equal(t, 5200.0, income)
}

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo", "--now", "2024-06-15", "--only", "forecast")
	require.NoError(t, err)

	var forecast analytics.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.GreaterOrEqual(t, forecast.MonthsUsed, 6)
	assert.Equal(t, analytics.ConfidenceHigh, forecast.Confidence)
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"store": "Kroger", "amount": 120, "category": "Food", "date": "2024-06-10T00:00:00Z"},
		{"store": "Uber", "amount": 30, "category": "Travel", "date": "2024-06-05T00:00:00Z"},
		{"store": "Kroger", "amount": 100, "category": "Food", "date": "2024-05-06T00:00:00Z"}
	]`), 0o600))

	out, err := execute(t, "analyze", path, "--now", "2024-06-15T12:00:00Z", "--only", "aggregation")
	require.NoError(t, err)

	var agg struct {
		OverallTotal   float64            `json:"overall_total"`
		MonthsAnalyzed int                `json:"months_analyzed"`
		CategoryTotals map[string]float64 `json:"category_totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &agg))
	assert.Equal(t, 250.0, agg.OverallTotal)
	assert.Equal(t, 2, agg.MonthsAnalyzed)
	assert.Equal(t, map[string]float64{"Food": 220, "Travel": 30}, agg.CategoryTotals)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "txs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	_, err = execute(t, "analyze", path, "--only", "everything")
	assert.ErrorContains(t, err, "unknown component")

	_, err = execute(t, "analyze", path, "--now", "yesterday")
	assert.ErrorContains(t, err, "--now")

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","category":"Food","date":"2024-06-10T00:00:00Z"}]`), 0o600))
	_, err = execute(t, "analyze", path, "--now", "2024-06-15T12:00:00Z")
	assert.ErrorIs(t, err, analytics.ErrInvalidInput)
	assert.ErrorContains(t, err, "amount must be positive")
}

func TestCategorizeCommand(t *testing.T) {
	out, err := execute(t, "categorize", "SQ *STARBUCKS", "#1234")
	require.NoError(t, err)
	assert.Equal(t, "SQ *STARBUCKS #1234\tFood\t0.95\trule-based\n", out)

	out, err = execute(t, "categorize", "Acme", "--item", "Paracetamol", "--item", "pharmacy bag")
	require.NoError(t, err)
	assert.Contains(t, out, "\tHealthcare\t")
}
