package analytics

import (
	"context"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Source supplies the data the Analyzer works on. Implementations return
// their own errors; the Analyzer passes them through unchanged.
type Source interface {
	// FetchTransactions returns the user's transactions dated in [start, end].
	FetchTransactions(ctx context.Context, userID string, start, end time.Time) ([]*model.Transaction, error)
	// FetchBudget returns the user's budget, or nil with no error when none is set.
	FetchBudget(ctx context.Context, userID string) (*model.Budget, error)
	// FetchIncome returns the user's total income for the calendar month of month.
	FetchIncome(ctx context.Context, userID string, month time.Time) (float64, error)
}

// Windows sets how much history each component looks at.
type Windows struct {
	GeneralMonths  int
	ForecastMonths int
	AdvisorMonths  int
	AnomalyDays    int
}

func DefaultWindows() Windows {
	return Windows{
		GeneralMonths:  6,
		ForecastMonths: 12,
		AdvisorMonths:  3,
		AnomalyDays:    90,
	}
}

// Validate checks each window against the aggregator's bounds.
func (w Windows) Validate() error {
	for _, m := range []struct {
		field  string
		months int
	}{
		{"general_months", w.GeneralMonths},
		{"forecast_months", w.ForecastMonths},
		{"advisor_months", w.AdvisorMonths},
	} {
		if m.months < MinLookbackMonths || m.months > MaxLookbackMonths {
			return invalid(m.field, "must be between %d and %d, got %d", MinLookbackMonths, MaxLookbackMonths, m.months)
		}
	}
	if w.AnomalyDays < 1 {
		return invalid("anomaly_days", "must be positive, got %d", w.AnomalyDays)
	}
	return nil
}

// span returns the oldest instant any window reaches back to.
func (w Windows) span(now time.Time) time.Time {
	start := now.Add(-time.Duration(w.AnomalyDays) * day)
	for _, months := range []int{w.GeneralMonths, w.ForecastMonths, w.AdvisorMonths} {
		if s := MonthsAgo(now, months); s.Before(start) {
			start = s
		}
	}
	return start
}

// Analyzer runs the full pipeline for one user.
type Analyzer struct {
	source  Source
	windows Windows
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Analyzer)

func WithWindows(w Windows) Option {
	return func(a *Analyzer) { a.windows = w }
}

// WithClock replaces time.Now. Tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

func NewAnalyzer(source Source, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:  source,
		windows: DefaultWindows(),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Windows returns the configured windows.
func (a *Analyzer) Windows() Windows {
	return a.windows
}

// Run fetches the user's history once and produces the complete analysis.
func (a *Analyzer) Run(ctx context.Context, userID string) (*AnalysisResult, error) {
	if userID == "" {
		return nil, invalid("user_id", "is required")
	}
	if err := a.windows.Validate(); err != nil {
		return nil, err
	}
	now := a.now()
	log := a.log.With().Str("user_id", userID).Logger()

	txs, err := a.source.FetchTransactions(ctx, userID, a.windows.span(now), now)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("transactions", len(txs)).Msg("fetched history")

	general, err := Aggregate(txs, a.windows.GeneralMonths, now)
	if err != nil {
		return nil, err
	}
	history, err := Aggregate(txs, a.windows.ForecastMonths, now)
	if err != nil {
		return nil, err
	}
	recent, err := Aggregate(txs, a.windows.AdvisorMonths, now)
	if err != nil {
		return nil, err
	}

	var (
		forecast  *ForecastResult
		anomalies *AnomalyReport
		g         errgroup.Group
	)
	g.Go(func() error {
		forecast = Forecast(history)
		return nil
	})
	g.Go(func() error {
		var err error
		anomalies, err = DetectAnomalies(WithinDays(txs, a.windows.AnomalyDays, now))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	budget, err := a.source.FetchBudget(ctx, userID)
	if err != nil {
		return nil, err
	}
	income, err := a.source.FetchIncome(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	advice := Advise(AdviceInput{
		Aggregation:   recent,
		Forecast:      forecast,
		Anomalies:     anomalies,
		Budget:        budget,
		MonthlyIncome: income,
		Now:           now,
	})

	result := &AnalysisResult{
		Aggregation: general,
		Forecast:    forecast,
		Anomalies:   anomalies,
		Advisories:  advice,
		Insights:    Compose(recent, forecast, anomalies, advice),
		DataQuality: QualityOf(recent),
		GeneratedAt: now,
	}
	log.Info().
		Int("months_analyzed", general.MonthsAnalyzed).
		Int("anomalies", len(anomalies.Anomalies)).
		Int("advisories", len(advice)).
		Str("data_quality", string(result.DataQuality)).
		Msg("analysis complete")
	return result, nil
}

// Aggregation fetches and aggregates the last months of history.
func (a *Analyzer) Aggregation(ctx context.Context, userID string, months int) (*Aggregation, error) {
	if months < MinLookbackMonths || months > MaxLookbackMonths {
		return nil, invalid("months", "must be between %d and %d, got %d", MinLookbackMonths, MaxLookbackMonths, months)
	}
	now := a.now()
	txs, err := a.source.FetchTransactions(ctx, userID, MonthsAgo(now, months), now)
	if err != nil {
		return nil, err
	}
	return Aggregate(txs, months, now)
}

// Forecast predicts next month's spending from the forecast window.
func (a *Analyzer) Forecast(ctx context.Context, userID string) (*ForecastResult, error) {
	history, err := a.Aggregation(ctx, userID, a.windows.ForecastMonths)
	if err != nil {
		return nil, err
	}
	return Forecast(history), nil
}

// Anomalies scans the anomaly window.
func (a *Analyzer) Anomalies(ctx context.Context, userID string) (*AnomalyReport, error) {
	now := a.now()
	start := now.Add(-time.Duration(a.windows.AnomalyDays) * day)
	txs, err := a.source.FetchTransactions(ctx, userID, start, now)
	if err != nil {
		return nil, err
	}
	return DetectAnomalies(WithinDays(txs, a.windows.AnomalyDays, now))
}

// Advice runs the rule engine. It needs every input, so it is the full
// pipeline minus the narrative.
func (a *Analyzer) Advice(ctx context.Context, userID string) ([]Advisory, error) {
	result, err := a.Run(ctx, userID)
	if err != nil {
		return nil, err
	}
	return result.Advisories, nil
}

// Summary is the narrative view of an analysis.
type Summary struct {
	Insights    []Insight   `json:"insights"`
	DataQuality DataQuality `json:"data_quality"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Insights returns the narrative of a full analysis.
func (a *Analyzer) Insights(ctx context.Context, userID string) (*Summary, error) {
	result, err := a.Run(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Insights:    result.Insights,
		DataQuality: result.DataQuality,
		GeneratedAt: result.GeneratedAt,
	}, nil
}
