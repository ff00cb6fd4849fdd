package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	rootConfigPath  string
	rootModel       string
	rootLogFile     string
	rootLogLevel    string
	rootPromptsPath string
	rootMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "subtasker",
	Short: "Break tasks into subtasks with an LLM",
	Long: `Subtasker turns a task description into a tree of subtasks.

Each prompt goes to a decomposer agent, which either asks a clarifying
question or returns a decomposition. Decompositions are then reviewed by
a checker agent before they are shown.

With no arguments, launches the interactive chat screen. Use "subtasker repl"
for plain line-oriented output.

The API key is read from SUBTASKER_API_KEY, OPENROUTER_API_KEY or the
llm.api_key configuration value.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Config file (default: user and project config)")
	flags.StringVar(&rootModel, "model", "", "Override the model id")
	flags.StringVar(&rootLogFile, "log-file", "", "Write debug logs to this file")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&rootPromptsPath, "prompts", "", "Prompt pack overriding the built-in prompts")
	flags.StringVar(&rootMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	// Add subcommands
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
