// Package analytics is the financial analytics engine: period aggregation,
// next-month forecasting, anomaly detection, advisory rules and narrative
// insights over a user's transactions.
//
// Every component is a pure function of its arguments. Analyzer is the only
// type that performs I/O, and it does so through the Source collaborator.
package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Total is one entry of an ordered mapping.
type Total struct {
	Key    string
	Amount float64
}

// Totals is an ordered mapping from a key (period or category) to an amount.
// It serializes as a JSON object whose keys keep the slice order.
type Totals []Total

// Get returns the amount stored under key.
func (t Totals) Get(key string) (float64, bool) {
	for _, e := range t {
		if e.Key == key {
			return e.Amount, true
		}
	}
	return 0, false
}

// Sum adds every amount.
func (t Totals) Sum() float64 {
	var sum float64
	for _, e := range t {
		sum += e.Amount
	}
	return sum
}

// Keys returns the keys in order.
func (t Totals) Keys() []string {
	keys := make([]string, len(t))
	for i, e := range t {
		keys[i] = e.Key
	}
	return keys
}

// Max returns the first entry holding the largest amount.
func (t Totals) Max() (Total, bool) {
	if len(t) == 0 {
		return Total{}, false
	}
	best := t[0]
	for _, e := range t[1:] {
		if e.Amount > best.Amount {
			best = e
		}
	}
	return best, true
}

func (t Totals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		amount, err := json.Marshal(e.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(amount)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *Totals) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("totals: expected object, got %v", tok)
	}
	out := Totals{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("totals: expected string key, got %v", tok)
		}
		var amount float64
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("totals: value for %q: %w", key, err)
		}
		out = append(out, Total{Key: key, Amount: amount})
	}
	*t = out
	return nil
}

// Aggregation is the aggregator output.
type Aggregation struct {
	PeriodTotals   Totals  `json:"period_totals"`
	CategoryTotals Totals  `json:"category_totals"`
	OverallTotal   float64 `json:"overall_total"`
	MonthsAnalyzed int     `json:"months_analyzed"`
	AverageMonthly float64 `json:"average_monthly"`
	LookbackMonths int     `json:"lookback_months"`
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// Band is a forecast confidence interval.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ForecastResult is the forecaster output. Trend is empty when there was
// not enough history to fit a model.
type ForecastResult struct {
	PredictedAmount   float64    `json:"predicted_amount"`
	ConfidenceBand    Band       `json:"confidence_band"`
	Confidence        Confidence `json:"confidence_label"`
	MonthsUsed        int        `json:"months_used"`
	HistoricalAverage float64    `json:"historical_average"`
	Trend             Trend      `json:"trend,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// Sufficient reports whether the forecast was fitted on enough months.
func (f *ForecastResult) Sufficient() bool {
	return f != nil && f.MonthsUsed >= minForecastMonths
}

// Anomaly is a single flagged transaction.
type Anomaly struct {
	TransactionID string    `json:"transaction_id"`
	Store         string    `json:"store,omitempty"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	Deviation     float64   `json:"deviation"`
	Message       string    `json:"message"`
}

// AnomalyReport is the anomaly detector output.
type AnomalyReport struct {
	Anomalies     []Anomaly `json:"anomalies"`
	Threshold     float64   `json:"threshold"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	TotalAnalyzed int       `json:"total_analyzed"`
	Message       string    `json:"message,omitempty"`
}

type AdvisoryKind string

const (
	KindWarning    AdvisoryKind = "warning"
	KindSuggestion AdvisoryKind = "suggestion"
	KindAlert      AdvisoryKind = "alert"
	KindPositive   AdvisoryKind = "positive"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Advisory is one rule engine message.
type Advisory struct {
	Kind           AdvisoryKind `json:"type"`
	Category       string       `json:"category"`
	Title          string       `json:"title"`
	Message        string       `json:"message"`
	Recommendation string       `json:"recommendation"`
	Priority       Priority     `json:"priority"`
}

// Insight is one narrative entry.
type Insight struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type DataQuality string

const (
	DataQualityGood    DataQuality = "good"
	DataQualityLimited DataQuality = "limited"
)

// AnalysisResult is the orchestrator output.
type AnalysisResult struct {
	Aggregation *Aggregation    `json:"aggregation"`
	Forecast    *ForecastResult `json:"forecast"`
	Anomalies   *AnomalyReport  `json:"anomalies"`
	Advisories  []Advisory      `json:"advisories"`
	Insights    []Insight       `json:"insights"`
	DataQuality DataQuality     `json:"data_quality"`
	GeneratedAt time.Time       `json:"generated_at"`
}
