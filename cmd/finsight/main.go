// Command finsight runs the analytics engine offline: over a JSON export
// of transactions, over generated demo data, or to categorize one expense.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/castlemilk/finsight/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	userID   string
	nowFlag  string
	logLevel string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "finsight",
		Short:         "Spending analytics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&userID, "user", "cli-user", "user id the data belongs to")
	root.PersistentFlags().StringVar(&nowFlag, "now", "", "analysis time, RFC 3339 or YYYY-MM-DD (default: current time)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	root.AddCommand(analyzeCmd())
	root.AddCommand(demoCmd())
	root.AddCommand(categorizeCmd())
	return root
}

func cliLogger() zerolog.Logger {
	return logger.NewWithOptions(os.Stderr, logger.FormatConsole, logger.ParseLevel(logLevel))
}

// analysisTime resolves --now.
func analysisTime() (time.Time, error) {
	if nowFlag == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, nowFlag); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("--now: cannot parse %q", nowFlag)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
