package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/model"
	"github.com/castlemilk/finsight/internal/store"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a JSON array of transactions",
		Long: `Loads transactions from FILE (or - for stdin) and prints the analysis as JSON.

Each transaction needs a positive amount in whole cents, a category and a
date. --only limits the output to one of: aggregation, forecast, anomalies,
advice, insights.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := analysisTime()
			if err != nil {
				return err
			}
			txs, err := loadTransactions(args[0])
			if err != nil {
				return err
			}

			st := store.NewMemoryStore()
			for i, tx := range txs {
				if tx == nil {
					return fmt.Errorf("transaction %d is null", i)
				}
				tx.UserID = userID
			}
			if err := st.BatchCreateTransactions(cmd.Context(), txs); err != nil {
				return err
			}
			result, err := runAnalysis(cmd.Context(), st, now)
			if err != nil {
				return err
			}
			view, err := selectView(result, only)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "print a single component")
	return cmd
}

func loadTransactions(path string) ([]*model.Transaction, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var txs []*model.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

func runAnalysis(ctx context.Context, st store.Store, now time.Time) (*analytics.AnalysisResult, error) {
	analyzer := analytics.NewAnalyzer(store.NewSource(st),
		analytics.WithClock(func() time.Time { return now }),
		analytics.WithLogger(cliLogger()),
	)
	return analyzer.Run(ctx, userID)
}

func selectView(result *analytics.AnalysisResult, only string) (any, error) {
	switch only {
	case "":
		return result, nil
	case "aggregation":
		return result.Aggregation, nil
	case "forecast":
		return result.Forecast, nil
	case "anomalies":
		return result.Anomalies, nil
	case "advice":
		return result.Advisories, nil
	case "insights":
		return result.Insights, nil
	default:
		return nil, fmt.Errorf("--only: unknown component %q", only)
	}
}
