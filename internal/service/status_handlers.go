package service

import (
	"context"
	"math"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/shopspring/decimal"
)

const mlHealthTimeout = 3 * time.Second

// GetBudgetStatus compares this calendar month's spending with the budget.
func (s *AnalyticsService) GetBudgetStatus(ctx context.Context, req *connect.Request[UserRequest]) (*connect.Response[BudgetStatusResponse], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	budget, err := s.store.GetBudget(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("get budget", err)
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	txs, err := s.source.FetchTransactions(ctx, claims.UID, start, now)
	if err != nil {
		return nil, auth.WrapStoreError("load this month's transactions", err)
	}

	spent := decimal.Zero
	for _, tx := range txs {
		spent = spent.Add(decimal.NewFromFloat(tx.Amount))
	}
	limit := decimal.NewFromFloat(budget.MonthlyLimit)
	used := decimal.Zero
	if limit.IsPositive() {
		used = spent.Mul(decimal.NewFromInt(100)).Div(limit)
	}

	return connect.NewResponse(&BudgetStatusResponse{
		Budget:         budget,
		Month:          now.Format("2006-01"),
		Spent:          spent.Round(2).InexactFloat64(),
		Remaining:      math.Max(0, limit.Sub(spent).Round(2).InexactFloat64()),
		UsedPercentage: used.Round(2).InexactFloat64(),
		Level:          budgetLevel(used.InexactFloat64()),
	}), nil
}

func budgetLevel(usedPct float64) BudgetLevel {
	switch {
	case usedPct >= 100:
		return BudgetExceeded
	case usedPct >= 80:
		return BudgetWarning
	case usedPct >= 50:
		return BudgetNotice
	default:
		return BudgetOK
	}
}

// Health is public. It reports the engine components and probes the ML
// service when one is configured.
func (s *AnalyticsService) Health(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[HealthResponse], error) {
	resp := &HealthResponse{
		Status: "healthy",
		Components: map[string]string{
			"aggregator":       "operational",
			"forecaster":       "operational",
			"anomaly_detector": "operational",
			"advisor":          "operational",
			"insights":         "operational",
			"categorizer":      "operational",
		},
		MLService:   "not_configured",
		LLMProvider: s.llmProvider,
		Time:        s.now().UTC(),
	}

	if s.ml != nil {
		ctx, cancel := context.WithTimeout(ctx, mlHealthTimeout)
		defer cancel()
		health, err := s.ml.HealthCheck(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("ml service health check failed")
			resp.MLService = "unavailable"
		case health.Status == "":
			resp.MLService = "unknown"
		default:
			resp.MLService = health.Status
		}
	}
	return connect.NewResponse(resp), nil
}
