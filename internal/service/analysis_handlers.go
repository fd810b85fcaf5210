package service

import (
	"context"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/auth"
)

// GetAggregation returns period and category totals. Months defaults to
// the general analysis window.
func (s *AnalyticsService) GetAggregation(ctx context.Context, req *connect.Request[AggregationRequest]) (*connect.Response[analytics.Aggregation], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	months := req.Msg.Months
	if months == 0 {
		months = s.analyzer.Windows().GeneralMonths
	}

	agg, err := s.analyzer.Aggregation(ctx, claims.UID, months)
	if err != nil {
		return nil, auth.WrapStoreError("aggregate spending", err)
	}
	return connect.NewResponse(agg), nil
}

func (s *AnalyticsService) GetForecast(ctx context.Context, req *connect.Request[UserRequest]) (*connect.Response[analytics.ForecastResult], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	forecast, err := s.analyzer.Forecast(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("forecast spending", err)
	}
	return connect.NewResponse(forecast), nil
}

func (s *AnalyticsService) GetAnomalies(ctx context.Context, req *connect.Request[UserRequest]) (*connect.Response[analytics.AnomalyReport], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	report, err := s.analyzer.Anomalies(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("detect anomalies", err)
	}
	return connect.NewResponse(report), nil
}

func (s *AnalyticsService) GetAdvice(ctx context.Context, req *connect.Request[UserRequest]) (*connect.Response[AdviceResponse], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	advice, err := s.analyzer.Advice(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("generate advice", err)
	}
	return connect.NewResponse(&AdviceResponse{Advice: advice, Count: len(advice)}), nil
}

// GetInsights returns the narrative, plus a best-effort LLM report when
// asked for and configured.
func (s *AnalyticsService) GetInsights(ctx context.Context, req *connect.Request[InsightsRequest]) (*connect.Response[InsightsResponse], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.Run(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("generate insights", err)
	}

	resp := &InsightsResponse{
		Insights:    result.Insights,
		DataQuality: result.DataQuality,
		GeneratedAt: result.GeneratedAt,
		LLMEnabled:  s.enricher != nil,
	}
	if req.Msg.IncludeLLM {
		resp.LLMInsights = s.enricher.BestEffort(ctx, result)
	}
	return connect.NewResponse(resp), nil
}

// GetCompleteAnalysis runs every component over one fetch of history.
func (s *AnalyticsService) GetCompleteAnalysis(ctx context.Context, req *connect.Request[UserRequest]) (*connect.Response[analytics.AnalysisResult], error) {
	claims, err := auth.RequireUserAccess(ctx, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.Run(ctx, claims.UID)
	if err != nil {
		return nil, auth.WrapStoreError("run analysis", err)
	}
	return connect.NewResponse(result), nil
}
