// Package enrich hands a finished analysis to a large language model for a
// short prose report. It is optional: the analysis is complete without it.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 25 * time.Second
	recentPeriods  = 6
	topCategories  = 5
	topAdvice      = 3
)

const systemPrompt = "You are a financial insights assistant. Return ONLY valid JSON with keys: " +
	"summary (string), highlights (array of strings), risks (array of strings), " +
	"actions (array of strings). Do NOT wrap the response in code fences."

// Report is the model's reading of an analysis.
type Report struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Risks      []string `json:"risks"`
	Actions    []string `json:"actions"`
}

// Model generates a completion for a system instruction and a user prompt.
type Model interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Enricher turns analyses into Reports with a Model.
type Enricher struct {
	model   Model
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*Enricher)

func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) { e.timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Enricher) { e.log = log }
}

func New(model Model, opts ...Option) *Enricher {
	e := &Enricher{model: model, timeout: defaultTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich asks the model about result. A reply that is not JSON becomes the
// summary as-is.
func (e *Enricher) Enrich(ctx context.Context, result *analytics.AnalysisResult) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := "Generate insights for this financial data:\n" + BuildSummary(result)
	text, err := e.model.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}
	return parseReport(text), nil
}

// BestEffort is Enrich that never fails. A nil Enricher yields nil; an
// error yields a report whose summary explains it.
func (e *Enricher) BestEffort(ctx context.Context, result *analytics.AnalysisResult) *Report {
	if e == nil {
		return nil
	}
	report, err := e.Enrich(ctx, result)
	if err != nil {
		e.log.Warn().Err(err).Msg("llm enrichment failed")
		return unavailable(err)
	}
	return report
}

func unavailable(err error) *Report {
	return &Report{
		Summary:    "LLM insights unavailable: " + err.Error(),
		Highlights: []string{},
		Risks:      []string{},
		Actions:    []string{},
	}
}

// BuildSummary renders the compact data summary the model sees. Raw
// transactions never leave the service.
func BuildSummary(result *analytics.AnalysisResult) string {
	var (
		agg       = &analytics.Aggregation{}
		forecast  = &analytics.ForecastResult{}
		anomalies int
	)
	if result.Aggregation != nil {
		agg = result.Aggregation
	}
	if result.Forecast != nil {
		forecast = result.Forecast
	}
	if result.Anomalies != nil {
		anomalies = len(result.Anomalies.Anomalies)
	}

	periods := agg.PeriodTotals
	if len(periods) > recentPeriods {
		periods = periods[len(periods)-recentPeriods:]
	}

	categories := append(analytics.Totals(nil), agg.CategoryTotals...)
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Amount > categories[j].Amount })
	if len(categories) > topCategories {
		categories = categories[:topCategories]
	}

	titles := make([]string, 0, topAdvice)
	for i, a := range result.Advisories {
		if i == topAdvice {
			break
		}
		titles = append(titles, a.Title)
	}

	trend := string(forecast.Trend)
	if trend == "" {
		trend = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Monthly spending (recent): %s\n", formatTotals(periods))
	fmt.Fprintf(&b, "Top categories: %s\n", formatTotals(categories))
	fmt.Fprintf(&b, "Overall total: %.2f\n", agg.OverallTotal)
	fmt.Fprintf(&b, "Avg monthly: %.2f\n", agg.AverageMonthly)
	fmt.Fprintf(&b, "Next month prediction: %.2f\n", forecast.PredictedAmount)
	fmt.Fprintf(&b, "Spending trend: %s\n", trend)
	fmt.Fprintf(&b, "Anomalies detected: %d\n", anomalies)
	fmt.Fprintf(&b, "Top advice: %s", strings.Join(titles, "; "))
	return b.String()
}

func formatTotals(t analytics.Totals) string {
	parts := make([]string, len(t))
	for i, e := range t {
		parts[i] = fmt.Sprintf("%s: %.2f", e.Key, e.Amount)
	}
	return strings.Join(parts, ", ")
}

func parseReport(text string) *Report {
	var r Report
	if err := json.Unmarshal([]byte(cleanModelJSON(text)), &r); err != nil {
		r = Report{Summary: strings.TrimSpace(text)}
	}
	if r.Highlights == nil {
		r.Highlights = []string{}
	}
	if r.Risks == nil {
		r.Risks = []string{}
	}
	if r.Actions == nil {
		r.Actions = []string{}
	}
	return &r
}

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
