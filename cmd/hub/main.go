// Package main provides the entry point for the community hub aggregator.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hub",
	Short: "Community hub aggregator",
	Long:  "hub merges interview questions from a public repository with a published jobs spreadsheet and serves them for browsing, filtering and search.",
	// errors are printed once by main
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
