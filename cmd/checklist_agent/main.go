// Package main provides the entry point for the Tender Checklist HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "checklist_agent",
	Short: "Tender Checklist HTTP API Server",
	Long:  "Tender Checklist evaluates user-defined questions and conditions against uploaded tender documents via a single model call per run, exposed as a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
