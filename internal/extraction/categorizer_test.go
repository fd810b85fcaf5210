package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	resp  *MLCategorizeResponse
	err   error
	calls int
}

func (s *stubClassifier) Categorize(_ context.Context, _ MLCategorizeRequest) (*MLCategorizeResponse, error) {
	s.calls++
	return s.resp, s.err
}

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		want    string
		matched bool
	}{
		{"store name", Expense{Store: "STARBUCKS #4411"}, model.CategoryFood, true},
		{"items", Expense{Store: "Corner 42", Items: []string{"Parking ticket"}}, model.CategoryTravel, true},
		{"description", Expense{Store: "ACME", Description: "monthly Netflix plan"}, model.CategoryEntertainment, true},
		{"earlier rule wins", Expense{Store: "Walmart Supercenter"}, model.CategoryFood, true},
		{"pharmacy", Expense{Store: "CVS"}, model.CategoryHealthcare, true},
		{"bills", Expense{Store: "Comcast"}, model.CategoryBills, true},
		{"no match", Expense{Store: "Zed's"}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MatchKeywords(tc.expense)
			require.Equal(t, tc.matched, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.want, got.Category)
			assert.Equal(t, 0.95, got.Confidence)
			assert.Equal(t, "rule-based", got.Method)
		})
	}
}

func TestChainCategorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("rules short-circuit the classifier", func(t *testing.T) {
		ml := &stubClassifier{resp: &MLCategorizeResponse{PredictedCategory: "Bills", Confidence: 0.7}}
		got, err := NewChainCategorizer(ml, zerolog.Nop()).Categorize(ctx, Expense{Store: "Uber"})

		require.NoError(t, err)
		assert.Equal(t, model.CategoryTravel, got.Category)
		assert.Zero(t, ml.calls)
	})

	t.Run("classifier answers unmatched expenses", func(t *testing.T) {
		ml := &stubClassifier{resp: &MLCategorizeResponse{PredictedCategory: "groceries", Confidence: 0.72}}
		got, err := NewChainCategorizer(ml, zerolog.Nop()).Categorize(ctx, Expense{Store: "Zed's"})

		require.NoError(t, err)
		assert.Equal(t, Categorization{Category: model.CategoryFood, Confidence: 0.72, Method: "ml-classifier"}, got)
		assert.Equal(t, 1, ml.calls)
	})

	t.Run("classifier failure falls back to default", func(t *testing.T) {
		ml := &stubClassifier{err: errors.New("connection refused")}
		got, err := NewChainCategorizer(ml, zerolog.Nop()).Categorize(ctx, Expense{Store: "Zed's"})

		require.NoError(t, err)
		assert.Equal(t, Default(), got)
	})

	t.Run("no classifier", func(t *testing.T) {
		got, err := NewChainCategorizer(nil, zerolog.Nop()).Categorize(ctx, Expense{Store: "Zed's"})

		require.NoError(t, err)
		assert.Equal(t, Categorization{Category: "Other", Confidence: 0.5, Method: "default"}, got)
	})
}

type countingCategorizer struct {
	out   Categorization
	calls int
}

func (c *countingCategorizer) Categorize(context.Context, Expense) (Categorization, error) {
	c.calls++
	return c.out, nil
}

func TestCachedCategorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("caches decided answers", func(t *testing.T) {
		next := &countingCategorizer{out: Categorization{Category: "Food", Confidence: 0.8, Method: "ml-classifier"}}
		cc, err := NewCachedCategorizer(next, 100)
		require.NoError(t, err)
		defer cc.Close()

		first, err := cc.Categorize(ctx, Expense{Store: "Zed's"})
		require.NoError(t, err)
		cc.cache.Wait()
		second, err := cc.Categorize(ctx, Expense{Store: "Zed's"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("does not cache the default", func(t *testing.T) {
		next := &countingCategorizer{out: Default()}
		cc, err := NewCachedCategorizer(next, 100)
		require.NoError(t, err)
		defer cc.Close()

		_, _ = cc.Categorize(ctx, Expense{Store: "Zed's"})
		cc.cache.Wait()
		_, _ = cc.Categorize(ctx, Expense{Store: "Zed's"})

		assert.Equal(t, 2, next.calls)
	})
}
