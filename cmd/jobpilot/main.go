// Package main is the jobpilot CLI: a Telegram-driven assistant that
// lets an LLM agent drive a browser through job application forms,
// asking the human for anything it cannot infer and recording every
// attempt.
//
// # Basic Usage
//
// Start the bot:
//
//	jobpilot serve
//
// Apply to one URL from the terminal:
//
//	jobpilot apply https://jobs.example.com/123 --company Acme --title "Platform Engineer"
//
// Inspect state:
//
//	jobpilot applications
//	jobpilot credentials
//	jobpilot config get debug_mode
//	jobpilot doctor
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configDir string
	dbPath    string
	logsDir   string
	verbose   bool
}

func main() {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "jobpilot",
		Short:   "Chat-driven job application assistant",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "config",
		"Directory holding config.json, profile.json and documents")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "jobpilot.db",
		"Path to the SQLite database")
	root.PersistentFlags().StringVar(&flags.logsDir, "logs-dir", "logs",
		"Directory for debug run artifacts")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		buildServeCmd(flags),
		buildApplyCmd(flags),
		buildApplicationsCmd(flags),
		buildCredentialsCmd(flags),
		buildConfigCmd(flags),
		buildDoctorCmd(flags),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
