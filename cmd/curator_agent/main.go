// Package main provides the entry point for the content curator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "curator_agent",
	Short: "Training content curator",
	Long: `Curator builds validated, explained training packages from a content catalog.

A requirement profile runs through seven stages: intent extraction, hard filtering,
hybrid scoring, LLM relevance validation, grounded reason generation, citation
verification and package assembly. The resulting package is stored in PostgreSQL.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults to CONFIG_PATH, then ./curator.yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
