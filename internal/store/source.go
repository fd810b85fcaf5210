package store

import (
	"context"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/shopspring/decimal"
)

// Source adapts a Store to the analytics engine's read interface.
type Source struct {
	store    Store
	pageSize int32
}

func NewSource(s Store) *Source {
	return &Source{store: s, pageSize: DefaultPageSize}
}

// FetchTransactions drains every page of the user's transactions in [start, end].
func (s *Source) FetchTransactions(ctx context.Context, userID string, start, end time.Time) ([]*model.Transaction, error) {
	var (
		all   []*model.Transaction
		token string
	)
	for {
		page, next, err := s.store.ListTransactions(ctx, userID, &start, &end, s.pageSize, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// FetchBudget returns nil without error when the user has no budget.
func (s *Source) FetchBudget(ctx context.Context, userID string) (*model.Budget, error) {
	budget, err := s.store.GetBudget(ctx, userID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// FetchIncome sums the user's income dated in the calendar month containing month.
func (s *Source) FetchIncome(ctx context.Context, userID string, month time.Time) (float64, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	total := decimal.Zero
	var token string
	for {
		page, next, err := s.store.ListIncomes(ctx, userID, &start, &end, s.pageSize, token)
		if err != nil {
			return 0, err
		}
		for _, income := range page {
			total = total.Add(decimal.NewFromFloat(income.Amount))
		}
		if next == "" {
			break
		}
		token = next
	}
	return total.InexactFloat64(), nil
}
