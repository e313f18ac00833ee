// commands.go contains the cobra command builders. Each builder wires
// flags and delegates to its handler in run.go.
package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func buildServeCmd(flags *rootFlags) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Run the long-polling Telegram bot.

The bot accepts a job URL from the configured chat, applies on /apply,
answers /status, /debug and /help, and relays the agent's mid-flow
questions back to the chat. Configuration is re-read from disk before
every run, so edits to config.json take effect without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, headless)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	return cmd
}

func buildApplyCmd(flags *rootFlags) *cobra.Command {
	var (
		company  string
		title    string
		debug    bool
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "apply <job-url>",
		Short: "Apply to one job URL from the terminal",
		Long: `Apply to a single job posting, answering the agent's questions on
the terminal instead of Telegram.`,
		Example: `  jobpilot apply https://jobs.example.com/123 --company Acme --title "Platform Engineer"
  jobpilot apply https://jobs.example.com/123 --debug --headless=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), flags, args[0], company, title, debug, headless)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name (derived from the URL when empty)")
	cmd.Flags().StringVar(&title, "title", "", "Job title")
	cmd.Flags().BoolVar(&debug, "debug", false, "Stop before the final submit and capture step screenshots")
	cmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	return cmd
}

func buildApplicationsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "applications",
		Short: "List recorded application attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplications(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
}

func buildCredentialsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "credentials",
		Short: "List stored job board accounts (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
}

func buildConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write runtime config values",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.Context(), flags, cmd.OutOrStdout(), args[0])
		},
	}
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config value",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("config set requires a key and a value")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.Context(), flags, cmd.OutOrStdout(), args[0], args[1])
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func buildDoctorCmd(flags *rootFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and connectivity",
		Long: `Check the config directory layout, file formats and documents, then
verify the bot token and LLM key against their live endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), flags, cmd.OutOrStdout(), offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network connectivity checks")
	return cmd
}
