package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sd155/subtasker/internal/logging"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no LLM API key configured")

// apiKeyEnvVars are checked in order before the config file.
var apiKeyEnvVars = []string{"SUBTASKER_API_KEY", "OPENROUTER_API_KEY"}

// GetAPIKey returns the API key for the LLM endpoint.
// It checks in order: environment variables, config file.
func GetAPIKey(cfg *Config) (string, error) {
	for _, name := range apiKeyEnvVars {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}

	if cfg != nil && cfg.LLM.APIKey != "" {
		key := os.ExpandEnv(cfg.LLM.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAPIKey
}

// ValidateAPIKey performs basic validation on an API key.
// It checks format but does not call the endpoint.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if strings.TrimSpace(key) != key || strings.ContainsAny(key, " \t\n") {
		return errors.New("invalid API key format: contains whitespace")
	}
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 6 characters (sk-or-) and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:6] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the API key was sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	for _, name := range apiKeyEnvVars {
		if os.Getenv(name) != "" {
			return KeySourceEnv
		}
	}

	if cfg != nil && cfg.LLM.APIKey != "" {
		key := os.ExpandEnv(cfg.LLM.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return KeySourceConfig
		}
	}

	return KeySourceNone
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"llm.endpoint",
	"llm.api_key",
	"llm.model",
	"llm.providers",
	"llm.connect_timeout",
	"llm.decomposer_timeout",
	"llm.checker_timeout",
	"prompts.path",
	"prompts.watch",
	"logging.level",
	"logging.path",
	"tui.input_limit",
	"metrics.addr",
}

// Get returns a configuration value by dot-notation key. The API key is
// always masked.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "llm.endpoint":
		return c.LLM.Endpoint, nil
	case "llm.api_key":
		return MaskAPIKey(c.LLM.APIKey), nil
	case "llm.model":
		return c.LLM.Model, nil
	case "llm.providers":
		return strings.Join(c.LLM.Providers, ","), nil
	case "llm.connect_timeout":
		return c.LLM.ConnectTimeout.String(), nil
	case "llm.decomposer_timeout":
		return c.LLM.DecomposerTimeout.String(), nil
	case "llm.checker_timeout":
		return c.LLM.CheckerTimeout.String(), nil
	case "prompts.path":
		return c.Prompts.Path, nil
	case "prompts.watch":
		return strconv.FormatBool(c.Prompts.Watch), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.path":
		return c.Logging.Path, nil
	case "tui.input_limit":
		return strconv.Itoa(c.TUI.InputLimit), nil
	case "metrics.addr":
		return c.Metrics.Addr, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set assigns a configuration value by dot-notation key. Providers are
// given comma-separated; an empty value clears the restriction.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "llm.endpoint":
		c.LLM.Endpoint = value
	case "llm.api_key":
		c.LLM.APIKey = value
	case "llm.model":
		c.LLM.Model = value
	case "llm.providers":
		c.LLM.Providers = splitList(value)
	case "llm.connect_timeout":
		return setDuration(&c.LLM.ConnectTimeout, key, value)
	case "llm.decomposer_timeout":
		return setDuration(&c.LLM.DecomposerTimeout, key, value)
	case "llm.checker_timeout":
		return setDuration(&c.LLM.CheckerTimeout, key, value)
	case "prompts.path":
		c.Prompts.Path = value
	case "prompts.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		c.Prompts.Watch = b
	case "logging.level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		c.Logging.Level = value
	case "logging.path":
		c.Logging.Path = value
	case "tui.input_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if n <= 0 {
			return fmt.Errorf("invalid value for %s: must be positive", key)
		}
		c.TUI.InputLimit = n
	case "metrics.addr":
		c.Metrics.Addr = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid duration for %s: must be positive", key)
	}
	*dst = d
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
