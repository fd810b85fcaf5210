package analytics

import (
	"fmt"

	"github.com/castlemilk/finsight/internal/model"
)

const (
	minAnomalySample = 10
	anomalySigma     = 2.0
)

// DetectAnomalies flags transactions whose amount exceeds the sample mean by
// more than two population standard deviations. The caller supplies the
// recent window; flagged transactions keep their input order.
func DetectAnomalies(recent []*model.Transaction) (*AnomalyReport, error) {
	if err := validateTransactions(recent); err != nil {
		return nil, err
	}
	if len(recent) < minAnomalySample {
		return &AnomalyReport{
			Anomalies:     []Anomaly{},
			TotalAnalyzed: len(recent),
			Message:       "Not enough data for anomaly detection",
		}, nil
	}

	amounts := make([]float64, len(recent))
	for i, tx := range recent {
		amounts[i] = tx.Amount
	}
	mu := mean(amounts)
	sigma := populationStdDev(amounts, mu)
	threshold := mu + anomalySigma*sigma

	anomalies := make([]Anomaly, 0)
	for _, tx := range recent {
		if tx.Amount <= threshold {
			continue
		}
		var deviation float64
		if sigma > 0 {
			deviation = round2((tx.Amount - mu) / sigma)
		}
		anomalies = append(anomalies, Anomaly{
			TransactionID: tx.ID,
			Store:         tx.Store,
			Amount:        round2(tx.Amount),
			Category:      tx.Category,
			Date:          tx.Date,
			Deviation:     deviation,
			Message:       fmt.Sprintf("Unusually high expense: %.2f (avg: %.2f)", tx.Amount, mu),
		})
	}

	return &AnomalyReport{
		Anomalies:     anomalies,
		Threshold:     round2(threshold),
		Mean:          round2(mu),
		StdDev:        round2(sigma),
		TotalAnalyzed: len(recent),
	}, nil
}
