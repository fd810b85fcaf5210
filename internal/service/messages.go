package service

import (
	"time"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/enrich"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/model"
)

// UserRequest targets one user. An empty UserID means the caller.
type UserRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type AggregationRequest struct {
	UserID string `json:"user_id,omitempty"`
	Months int    `json:"months,omitempty"`
}

type AdviceResponse struct {
	Advice []analytics.Advisory `json:"advice"`
	Count  int                  `json:"count"`
}

type InsightsRequest struct {
	UserID     string `json:"user_id,omitempty"`
	IncludeLLM bool   `json:"include_llm,omitempty"`
}

type InsightsResponse struct {
	Insights    []analytics.Insight   `json:"insights"`
	DataQuality analytics.DataQuality `json:"data_quality"`
	GeneratedAt time.Time             `json:"generated_at"`
	LLMInsights *enrich.Report        `json:"llm_insights,omitempty"`
	LLMEnabled  bool                  `json:"llm_enabled"`
}

type CategorizeRequest struct {
	StoreName   string   `json:"store_name"`
	Items       []string `json:"items,omitempty"`
	Description string   `json:"description,omitempty"`
}

type FeedbackRequest struct {
	TransactionID     string   `json:"transaction_id"`
	CorrectedCategory string   `json:"corrected_category"`
	Confidence        *float64 `json:"confidence,omitempty"`
}

type FeedbackResponse struct {
	Feedback *model.CategorizationFeedback `json:"feedback"`
	Updated  bool                          `json:"updated"`
}

type ListFeedbackRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListFeedbackResponse struct {
	Feedback []*model.CategorizationFeedback `json:"feedback"`
}

// ScanReceiptRequest carries the upload base64-encoded in JSON.
type ScanReceiptRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
	Save     bool   `json:"save,omitempty"`
}

type ScanReceiptResponse struct {
	Receipt        *extraction.Receipt        `json:"receipt"`
	Categorization *extraction.Categorization `json:"categorization"`
	ArchiveURI     string                     `json:"archive_uri,omitempty"`
	Transaction    *model.Transaction         `json:"transaction,omitempty"`
}

// BudgetLevel grades how much of the monthly budget is used.
type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetNotice   BudgetLevel = "notice"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

type BudgetStatusResponse struct {
	Budget         *model.Budget `json:"budget"`
	Month          string        `json:"month"`
	Spent          float64       `json:"spent"`
	Remaining      float64       `json:"remaining"`
	UsedPercentage float64       `json:"used_percentage"`
	Level          BudgetLevel   `json:"level"`
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Components  map[string]string `json:"components"`
	MLService   string            `json:"ml_service"`
	LLMProvider string            `json:"llm_provider"`
	Time        time.Time         `json:"time"`
}

type CreateTransactionRequest struct {
	Store    string    `json:"store"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category,omitempty"`
	Date     time.Time `json:"date"`
	Items    []string  `json:"items,omitempty"`
	RawText  string    `json:"raw_text,omitempty"`
}

type CreateTransactionResponse struct {
	Transaction    *model.Transaction         `json:"transaction"`
	Categorization *extraction.Categorization `json:"categorization,omitempty"`
}

type ListTransactionsRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	PageSize  int32      `json:"page_size,omitempty"`
	PageToken string     `json:"page_token,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions  []*model.Transaction `json:"transactions"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type Empty struct{}

type SetBudgetRequest struct {
	MonthlyLimit   float64 `json:"monthly_limit"`
	Currency       string  `json:"currency,omitempty"`
	AlertThreshold float64 `json:"alert_threshold,omitempty"`
}

type RecordIncomeRequest struct {
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	Date        time.Time `json:"date"`
	IsRecurring bool      `json:"is_recurring,omitempty"`
}
