package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sd155/subtasker/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify subtasker configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/subtasker/config.yaml
Project-specific overrides can be placed in .subtasker.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		switch len(args) {
		case 0:
			return displayAllConfig(cmd, cfg)
		case 1:
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		default:
			return setConfigKey(cmd, cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	for _, key := range config.Keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
	}
	fmt.Fprintf(out, "\napi key source: %s\n", config.GetAPIKeySource(cfg))
	return nil
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cmd *cobra.Command, cfg *config.Config, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	path := rootConfigPath
	if path == "" {
		if err := config.Save(cfg); err != nil {
			return err
		}
		path = config.GetUserConfigPath()
	} else if err := config.SaveTo(path, cfg); err != nil {
		return err
	}

	shown, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (%s)\n", key, shown, path)
	return nil
}
