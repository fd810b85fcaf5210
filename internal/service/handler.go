package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// ServiceName is the fully-qualified Connect service name.
const ServiceName = "finsight.v1.AnalyticsService"

// Procedure returns the Connect path for method.
func Procedure(method string) string {
	return "/" + ServiceName + "/" + method
}

// NewHandler mounts every AnalyticsService method and returns the path
// prefix to register it under.
func NewHandler(svc *AnalyticsService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()

	mux.Handle(Procedure("GetAggregation"), connect.NewUnaryHandler(Procedure("GetAggregation"), svc.GetAggregation, opts...))
	mux.Handle(Procedure("GetForecast"), connect.NewUnaryHandler(Procedure("GetForecast"), svc.GetForecast, opts...))
	mux.Handle(Procedure("GetAnomalies"), connect.NewUnaryHandler(Procedure("GetAnomalies"), svc.GetAnomalies, opts...))
	mux.Handle(Procedure("GetAdvice"), connect.NewUnaryHandler(Procedure("GetAdvice"), svc.GetAdvice, opts...))
	mux.Handle(Procedure("GetInsights"), connect.NewUnaryHandler(Procedure("GetInsights"), svc.GetInsights, opts...))
	mux.Handle(Procedure("GetCompleteAnalysis"), connect.NewUnaryHandler(Procedure("GetCompleteAnalysis"), svc.GetCompleteAnalysis, opts...))

	mux.Handle(Procedure("Categorize"), connect.NewUnaryHandler(Procedure("Categorize"), svc.Categorize, opts...))
	mux.Handle(Procedure("SubmitFeedback"), connect.NewUnaryHandler(Procedure("SubmitFeedback"), svc.SubmitFeedback, opts...))
	mux.Handle(Procedure("ListFeedback"), connect.NewUnaryHandler(Procedure("ListFeedback"), svc.ListFeedback, opts...))
	mux.Handle(Procedure("ScanReceipt"), connect.NewUnaryHandler(Procedure("ScanReceipt"), svc.ScanReceipt, opts...))

	mux.Handle(Procedure("CreateTransaction"), connect.NewUnaryHandler(Procedure("CreateTransaction"), svc.CreateTransaction, opts...))
	mux.Handle(Procedure("ListTransactions"), connect.NewUnaryHandler(Procedure("ListTransactions"), svc.ListTransactions, opts...))
	mux.Handle(Procedure("DeleteTransaction"), connect.NewUnaryHandler(Procedure("DeleteTransaction"), svc.DeleteTransaction, opts...))
	mux.Handle(Procedure("SetBudget"), connect.NewUnaryHandler(Procedure("SetBudget"), svc.SetBudget, opts...))
	mux.Handle(Procedure("GetBudget"), connect.NewUnaryHandler(Procedure("GetBudget"), svc.GetBudget, opts...))
	mux.Handle(Procedure("GetBudgetStatus"), connect.NewUnaryHandler(Procedure("GetBudgetStatus"), svc.GetBudgetStatus, opts...))
	mux.Handle(Procedure("RecordIncome"), connect.NewUnaryHandler(Procedure("RecordIncome"), svc.RecordIncome, opts...))

	mux.Handle(Procedure("Health"), connect.NewUnaryHandler(Procedure("Health"), svc.Health, opts...))

	return "/" + ServiceName + "/", mux
}
