package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sd155/subtasker/internal/config"
	"github.com/sd155/subtasker/internal/prompts"
)

var (
	initForce      bool
	initProject    bool
	initPromptsOut string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long: `Create a configuration file with default values.

By default the user config (~/.config/subtasker/config.yaml) is written.
With --project, a .subtasker.yaml is written to the current directory.

Examples:
  subtasker init                               # Write the user config
  subtasker init --project                     # Write .subtasker.yaml here
  subtasker init --write-prompts prompts.yaml  # Also export the built-in prompts`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	initCmd.Flags().BoolVar(&initProject, "project", false, "Write a project config in the current directory")
	initCmd.Flags().StringVar(&initPromptsOut, "write-prompts", "", "Export the built-in prompt pack to this path")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.GetUserConfigPath()
	if initProject {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		path = filepath.Join(cwd, ".subtasker.yaml")
	}

	cfg := config.Default()
	out := cmd.OutOrStdout()

	if initPromptsOut != "" {
		abs, err := filepath.Abs(initPromptsOut)
		if err != nil {
			return fmt.Errorf("resolving absolute path: %w", err)
		}
		if err := writeFile(abs, prompts.Template()); err != nil {
			printStatus(out, "✗", "Could not write prompt pack", color.FgRed)
			return err
		}
		printStatus(out, "✓", "Wrote prompt pack to "+abs, color.FgGreen)
		cfg.Prompts.Path = abs
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		printStatus(out, "⚠", path+" already exists (use --force to overwrite)", color.FgYellow)
	} else {
		if err := config.SaveTo(path, cfg); err != nil {
			printStatus(out, "✗", "Could not write config", color.FgRed)
			return err
		}
		printStatus(out, "✓", "Wrote config to "+path, color.FgGreen)
	}

	source := config.GetAPIKeySource(cfg)
	if source == config.KeySourceNone {
		printStatus(out, "⚠", "No API key found (you can set it later)", color.FgYellow)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  export OPENROUTER_API_KEY=your-key-here")
		fmt.Fprintln(out, "  # or: subtasker config llm.api_key your-key-here")
	} else {
		key, _ := config.GetAPIKey(cfg)
		if err := config.ValidateAPIKey(key); err != nil {
			printStatus(out, "⚠", fmt.Sprintf("API key from %s looks wrong: %v", source, err), color.FgYellow)
		} else {
			printStatus(out, "✓", fmt.Sprintf("API key found (%s, %s)", config.MaskAPIKey(key), source), color.FgGreen)
		}
	}

	fmt.Fprintf(out, "\n%s Run %s to start.\n", color.GreenString("✓"), color.CyanString("subtasker"))
	return nil
}

// writeFile writes data unless path exists and --force was not given.
func writeFile(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// printStatus writes a status line with a colored symbol to w.
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}
