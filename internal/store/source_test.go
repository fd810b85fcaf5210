package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var _ analytics.Source = (*Source)(nil)

func TestSource_FetchTransactionsDrainsPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := NewMockStore(ctrl)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		mockStore.EXPECT().
			ListTransactions(gomock.Any(), "user-1", &start, &end, int32(DefaultPageSize), "").
			Return([]*model.Transaction{{ID: "a"}, {ID: "b"}}, "cursor-1", nil),
		mockStore.EXPECT().
			ListTransactions(gomock.Any(), "user-1", &start, &end, int32(DefaultPageSize), "cursor-1").
			Return([]*model.Transaction{{ID: "c"}}, "", nil),
	)

	txs, err := NewSource(mockStore).FetchTransactions(context.Background(), "user-1", start, end)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "c", txs[2].ID)
}

func TestSource_FetchTransactionsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := NewMockStore(ctrl)
	boom := errors.New("deadline exceeded")

	mockStore.EXPECT().
		ListTransactions(gomock.Any(), "user-1", gomock.Any(), gomock.Any(), gomock.Any(), "").
		Return(nil, "", boom)

	txs, err := NewSource(mockStore).FetchTransactions(context.Background(), "user-1", time.Now(), time.Now())
	assert.Nil(t, txs)
	assert.Same(t, boom, err)
}

func TestSource_FetchBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := NewMockStore(ctrl)
	src := NewSource(mockStore)
	ctx := context.Background()

	mockStore.EXPECT().GetBudget(gomock.Any(), "no-budget").Return(nil, ErrNotFound)
	budget, err := src.FetchBudget(ctx, "no-budget")
	require.NoError(t, err)
	assert.Nil(t, budget)

	mockStore.EXPECT().GetBudget(gomock.Any(), "user-1").Return(&model.Budget{MonthlyLimit: 800}, nil)
	budget, err = src.FetchBudget(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 800.0, budget.MonthlyLimit)

	boom := errors.New("unavailable")
	mockStore.EXPECT().GetBudget(gomock.Any(), "user-2").Return(nil, boom)
	_, err = src.FetchBudget(ctx, "user-2")
	assert.Same(t, boom, err)
}

func TestSource_FetchIncomeSumsCalendarMonth(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, income := range []*model.Income{
		{UserID: "user-1", Amount: 2500.10, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{UserID: "user-1", Amount: 499.90, Date: time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)},
		{UserID: "user-1", Amount: 9999, Date: time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)},
		{UserID: "user-1", Amount: 9999, Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{UserID: "user-2", Amount: 9999, Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	} {
		require.NoError(t, s.CreateIncome(ctx, income))
	}

	total, err := NewSource(s).FetchIncome(ctx, "user-1", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3000.0, total)
}
