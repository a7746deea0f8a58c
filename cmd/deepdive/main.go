// Package main provides the entry point for the deepdive sales-research CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deepdive [company]",
	Short: "Automated pre-call company research",
	Long:  "deepdive researches a company across public data sources and produces a sales briefing: what the company does, likely pain points, discovery questions, and a tailored pitch, with source citations.",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
