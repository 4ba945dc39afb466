// Package main provides the interview_agent CLI: the HTTP API server and direct orchestrator commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "AI mock interview coach",
	Long: `interview_agent runs mock technical interviews with an interviewer, an evaluator and a coach.

Run "serve" for the REST API, or drive a single interview from the command line with
start, respond, end, evaluate, coach and report. "practice" runs a whole interview in memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Persistent flags shared by every subcommand.
var (
	configPath   string
	databaseURL  string
	apiKey       string
	settingsPath string
	candidateArg string
	mockMode     bool
	verbose      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	flags.StringVar(&apiKey, "api-key", "", "Gemini API Key (defaults to GEMINI_API_KEY env var)")
	flags.StringVar(&settingsPath, "settings", "", "Path to interview.yaml orchestrator settings")
	flags.StringVar(&candidateArg, "candidate", "", "Candidate UUID that owns the interview (empty for anonymous)")
	flags.BoolVar(&mockMode, "mock", false, "Use scripted completions instead of Gemini")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print boxed summaries and info logs")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
