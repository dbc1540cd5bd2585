package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/project-tktt/community-hub/internal/view"
)

var (
	questionsQuery  view.Query
	questionsExport bool
	questionsPretty bool
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Filter, search and page through interview questions",
	Long:  `Load every interview question and print one page of the filtered and searched list, or the whole filtered list as CSV with --csv.`,
	RunE:  runQuestions,
}

func init() {
	f := questionsCmd.Flags()
	f.StringVar(&questionsQuery.Company, "company", "", "Company facet")
	f.StringVar(&questionsQuery.Year, "year", "", "Year facet")
	f.StringVar(&questionsQuery.Role, "role", "", "Role facet")
	f.StringVar(&questionsQuery.Experience, "experience", "", "Experience facet")
	f.StringVar(&questionsQuery.Topic, "topic", "", "Topic facet")
	f.StringVar(&questionsQuery.Contributor, "contributor", "", "Contributor key")
	f.StringVar(&questionsQuery.Difficulty, "difficulty", "", "Difficulty facet")
	f.StringVarP(&questionsQuery.Search, "search", "q", "", "Fuzzy search text")
	f.IntVar(&questionsQuery.Page, "page", 1, "Page number")
	f.BoolVar(&questionsExport, "csv", false, "Write the filtered list as CSV instead of a JSON page")
	f.BoolVar(&questionsPretty, "pretty", false, "Indent JSON output")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, _ []string) error {
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

	questions, err := a.aggregator.GetInterviewQuestions(ctx, narrowing(questionsQuery.Year), narrowing(questionsQuery.Company))
	if err != nil {
		return fmt.Errorf("load interview questions: %w", err)
	}

	if questionsExport {
		filtered := view.Search(questionsQuery.Filter.Apply(questions), questionsQuery.Search)
		return view.ExportCSV(os.Stdout, filtered)
	}
	return writeJSON(os.Stdout, view.Run(questions, questionsQuery, cfg.Server.PageSize), questionsPretty)
}

func narrowing(facet string) string {
	if strings.EqualFold(facet, view.AllValues) {
		return ""
	}
	return facet
}
