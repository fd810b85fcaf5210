package main

import (
	"fmt"
	"strings"

	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/spf13/cobra"
)

func categorizeCmd() *cobra.Command {
	var (
		items  []string
		mlURL  string
		format bool
	)
	cmd := &cobra.Command{
		Use:   "categorize STORE...",
		Short: "Suggest a category for an expense",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := strings.Join(args, " ")
			if format {
				store = extraction.FormatStoreName(store)
			}

			var classifier extraction.Classifier
			if mlURL != "" {
				classifier = extraction.NewMLClient(mlURL)
			}
			out, err := extraction.NewChainCategorizer(classifier, cliLogger()).
				Categorize(cmd.Context(), extraction.Expense{Store: store, Items: items})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.2f\t%s\n", store, out.Category, out.Confidence, out.Method)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&items, "item", nil, "purchased item (repeatable)")
	cmd.Flags().StringVar(&mlURL, "ml-url", "", "ML service base URL for expenses the rules miss")
	cmd.Flags().BoolVar(&format, "clean", false, "clean up a raw bank descriptor first")
	return cmd
}
