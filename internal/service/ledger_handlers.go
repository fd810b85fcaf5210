package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/model"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency       = "USD"
	defaultAlertThreshold = 80
)

// CreateTransaction records an expense, categorizing it when no category
// is given.
func (s *AnalyticsService) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.Amount <= 0 {
		return nil, invalidArgument("amount must be positive, got %v", msg.Amount)
	}
	if d := decimal.NewFromFloat(msg.Amount); !d.Equal(d.Round(2)) {
		return nil, invalidArgument("amount must be in whole cents, got %v", msg.Amount)
	}
	if strings.TrimSpace(msg.Store) == "" && strings.TrimSpace(msg.Category) == "" {
		return nil, invalidArgument("store or category is required")
	}

	now := s.now().UTC()
	tx := &model.Transaction{
		UserID:    claims.UID,
		Store:     strings.TrimSpace(msg.Store),
		Amount:    msg.Amount,
		Category:  strings.TrimSpace(msg.Category),
		Date:      msg.Date,
		Items:     msg.Items,
		RawText:   msg.RawText,
		CreatedAt: now,
	}
	if tx.Date.IsZero() {
		tx.Date = now
	}

	resp := &CreateTransactionResponse{Transaction: tx}
	if tx.Category == "" {
		cat, err := s.categorizer.Categorize(ctx, extraction.Expense{Store: tx.Store, Items: tx.Items})
		if err != nil {
			return nil, mapExtractionError(err)
		}
		tx.Category = cat.Category
		resp.Categorization = &cat
	} else {
		tx.Category = extraction.NormalizeCategory(tx.Category)
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, auth.WrapStoreError("create transaction", err)
	}
	return connect.NewResponse(resp), nil
}

func (s *AnalyticsService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.StartDate != nil && msg.EndDate != nil && msg.EndDate.Before(*msg.StartDate) {
		return nil, invalidArgument("end_date is before start_date")
	}

	txs, next, err := s.store.ListTransactions(ctx, claims.UID, msg.StartDate, msg.EndDate, auth.NormalizePageSize(msg.PageSize), msg.PageToken)
	if err != nil {
		return nil, auth.WrapStoreError("list transactions", err)
	}
	if txs == nil {
		txs = []*model.Transaction{}
	}
	return connect.NewResponse(&ListTransactionsResponse{Transactions: txs, NextPageToken: next}), nil
}

func (s *AnalyticsService) DeleteTransaction(ctx context.Context, req *connect.Request[DeleteTransactionRequest]) (*connect.Response[Empty], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.TransactionID == "" {
		return nil, invalidArgument("transaction_id is required")
	}
	if _, err := s.ownedTransaction(ctx, claims.UID, req.Msg.TransactionID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteTransaction(ctx, req.Msg.TransactionID); err != nil {
		return nil, auth.WrapStoreError("delete transaction", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// SetBudget creates or replaces the caller's monthly budget.
func (s *AnalyticsService) SetBudget(ctx context.Context, req *connect.Request[SetBudgetRequest]) (*connect.Response[model.Budget], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.MonthlyLimit <= 0 {
		return nil, invalidArgument("monthly_limit must be positive, got %v", msg.MonthlyLimit)
	}
	if msg.AlertThreshold < 0 || msg.AlertThreshold > 100 {
		return nil, invalidArgument("alert_threshold must be between 0 and 100, got %v", msg.AlertThreshold)
	}

	budget := &model.Budget{
		UserID:         claims.UID,
		MonthlyLimit:   msg.MonthlyLimit,
		Currency:       strings.ToUpper(strings.TrimSpace(msg.Currency)),
		AlertThreshold: msg.AlertThreshold,
	}
	if budget.Currency == "" {
		budget.Currency = defaultCurrency
	}
	if budget.AlertThreshold == 0 {
		budget.AlertThreshold = defaultAlertThreshold
	}
	if err := s.store.UpsertBudget(ctx, budget); err != nil {
		return nil, auth.WrapStoreError("set budget", err)
	}
	return connect.NewResponse(budget), nil
}

func (s *AnalyticsService) GetBudget(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[model.Budget], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	budget, err := s.store.GetBudget(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("get budget", err)
	}
	return connect.NewResponse(budget), nil
}

func (s *AnalyticsService) RecordIncome(ctx context.Context, req *connect.Request[RecordIncomeRequest]) (*connect.Response[model.Income], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.Amount <= 0 {
		return nil, invalidArgument("amount must be positive, got %v", msg.Amount)
	}
	if strings.TrimSpace(msg.Source) == "" {
		return nil, invalidArgument("source is required")
	}

	now := s.now().UTC()
	income := &model.Income{
		UserID:      claims.UID,
		Source:      strings.TrimSpace(msg.Source),
		Category:    msg.Category,
		Amount:      msg.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(msg.Currency)),
		Date:        msg.Date,
		IsRecurring: msg.IsRecurring,
		CreatedAt:   now,
	}
	if income.Category == "" {
		income.Category = "Salary"
	}
	if income.Currency == "" {
		income.Currency = defaultCurrency
	}
	if income.Date.IsZero() {
		income.Date = now
	}
	if err := s.store.CreateIncome(ctx, income); err != nil {
		return nil, auth.WrapStoreError("record income", err)
	}
	return connect.NewResponse(income), nil
}
