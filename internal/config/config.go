// Package config handles configuration loading and management for subtasker.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sd155/subtasker/internal/llm"
)

const appName = "subtasker"

// Config holds all configuration for subtasker.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Prompts PromptsConfig `mapstructure:"prompts"`
	Logging LoggingConfig `mapstructure:"logging"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LLMConfig holds the chat-completions endpoint settings.
type LLMConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Providers         []string      `mapstructure:"providers"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	DecomposerTimeout time.Duration `mapstructure:"decomposer_timeout"`
	CheckerTimeout    time.Duration `mapstructure:"checker_timeout"`
}

// PromptsConfig holds the prompt override settings.
type PromptsConfig struct {
	// Path is a YAML prompt pack overriding the built-in prompts.
	Path string `mapstructure:"path"`
	// Watch reloads the pack when the file changes.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig holds the debug log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	InputLimit int `mapstructure:"input_limit"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (SUBTASKER_API_KEY, OPENROUTER_API_KEY)
// 2. Project config (.subtasker.yaml in current directory or parent)
// 3. User config (~/.config/subtasker/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.BindEnv("llm.api_key", "SUBTASKER_API_KEY", "OPENROUTER_API_KEY")

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.Prompts.Path = expandEnv(cfg.Prompts.Path)
	cfg.Logging.Path = expandEnv(cfg.Logging.Path)

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveTo(filepath.Join(userConfigDir, "config.yaml"), cfg)
}

// SaveTo writes the configuration to path.
func SaveTo(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("llm.endpoint", cfg.LLM.Endpoint)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.providers", cfg.LLM.Providers)
	v.Set("llm.connect_timeout", cfg.LLM.ConnectTimeout.String())
	v.Set("llm.decomposer_timeout", cfg.LLM.DecomposerTimeout.String())
	v.Set("llm.checker_timeout", cfg.LLM.CheckerTimeout.String())
	v.Set("prompts.path", cfg.Prompts.Path)
	v.Set("prompts.watch", cfg.Prompts.Watch)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.path", cfg.Logging.Path)
	v.Set("tui.input_limit", cfg.TUI.InputLimit)
	v.Set("metrics.addr", cfg.Metrics.Addr)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DecomposerGateway returns the gateway settings for the decomposer agent.
func (c *Config) DecomposerGateway(apiKey string) llm.Config {
	return c.gateway(apiKey, c.LLM.DecomposerTimeout)
}

// CheckerGateway returns the gateway settings for the checker agent.
func (c *Config) CheckerGateway(apiKey string) llm.Config {
	return c.gateway(apiKey, c.LLM.CheckerTimeout)
}

func (c *Config) gateway(apiKey string, timeout time.Duration) llm.Config {
	return llm.Config{
		Endpoint:       c.LLM.Endpoint,
		BearerToken:    apiKey,
		ConnectTimeout: c.LLM.ConnectTimeout,
		RequestTimeout: timeout,
		ModelID:        c.LLM.Model,
		Providers:      append([]string(nil), c.LLM.Providers...),
	}
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.endpoint", llm.DefaultEndpoint)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.providers", llm.DefaultProviders)
	v.SetDefault("llm.connect_timeout", "15s")
	v.SetDefault("llm.decomposer_timeout", "60s")
	v.SetDefault("llm.checker_timeout", "30s")

	v.SetDefault("prompts.path", "")
	v.SetDefault("prompts.watch", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")

	v.SetDefault("tui.input_limit", 4000)

	v.SetDefault("metrics.addr", "")
}

// getUserConfigDir returns the XDG config directory for subtasker.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .subtasker.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, "."+appName+".yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Endpoint:          llm.DefaultEndpoint,
			Model:             llm.DefaultModel,
			Providers:         append([]string(nil), llm.DefaultProviders...),
			ConnectTimeout:    llm.DefaultConnectTimeout,
			DecomposerTimeout: llm.DefaultRequestTimeout,
			CheckerTimeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		TUI: TUIConfig{
			InputLimit: 4000,
		},
	}
}
