package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fetchPretty bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch homepage data and print it as JSON",
	Long:  `Load interview questions and jobs from their remote sources, apply the configured failure policy and write the combined result to stdout.`,
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchPretty, "pretty", false, "Indent JSON output")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.aggregator.GetHomePageData(ctx)
	if err != nil {
		return fmt.Errorf("fetch homepage data: %w", err)
	}
	logger.Info("homepage data fetched",
		zap.Int("questions", len(data.InterviewQuestions)),
		zap.Int("jobs", len(data.Jobs)),
	)
	return writeJSON(os.Stdout, data, fetchPretty)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
