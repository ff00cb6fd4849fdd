package config

import (
	"testing"
	"time"
)

func TestGetAPIKey(t *testing.T) {
	t.Run("subtasker variable wins", func(t *testing.T) {
		t.Setenv("SUBTASKER_API_KEY", "sk-or-subtasker")
		t.Setenv("OPENROUTER_API_KEY", "sk-or-openrouter")

		key, err := GetAPIKey(&Config{LLM: LLMConfig{APIKey: "sk-or-config"}})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-or-subtasker" {
			t.Errorf("expected 'sk-or-subtasker', got %q", key)
		}
	})

	t.Run("openrouter variable", func(t *testing.T) {
		t.Setenv("SUBTASKER_API_KEY", "")
		t.Setenv("OPENROUTER_API_KEY", "sk-or-openrouter")

		key, err := GetAPIKey(&Config{})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-or-openrouter" {
			t.Errorf("expected 'sk-or-openrouter', got %q", key)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("SUBTASKER_API_KEY", "")
		t.Setenv("OPENROUTER_API_KEY", "")

		key, err := GetAPIKey(&Config{LLM: LLMConfig{APIKey: "sk-or-config-key"}})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-or-config-key" {
			t.Errorf("expected 'sk-or-config-key', got %q", key)
		}
		if src := GetAPIKeySource(&Config{LLM: LLMConfig{APIKey: "sk-or-config-key"}}); src != KeySourceConfig {
			t.Errorf("expected source %q, got %q", KeySourceConfig, src)
		}
	})

	t.Run("unexpanded reference", func(t *testing.T) {
		t.Setenv("SUBTASKER_API_KEY", "")
		t.Setenv("OPENROUTER_API_KEY", "")

		_, err := GetAPIKey(&Config{LLM: LLMConfig{APIKey: "${UNSET_SUBTASKER_TEST_VAR}"}})
		if err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		t.Setenv("SUBTASKER_API_KEY", "")
		t.Setenv("OPENROUTER_API_KEY", "")

		_, err := GetAPIKey(nil)
		if err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if src := GetAPIKeySource(nil); src != KeySourceNone {
			t.Errorf("expected source %q, got %q", KeySourceNone, src)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid", key: "sk-or-v1-0123456789abcdef", wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "too short", key: "sk-or-short", wantErr: true},
		{name: "whitespace", key: "sk-or-v1-0123456789 abcdef", wantErr: true},
		{name: "trailing newline", key: "sk-or-v1-0123456789abcdef\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "", want: "(not set)"},
		{key: "short", want: "***"},
		{key: "sk-or-v1-0123456789abcdef", want: "sk-or-...cdef"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	for _, key := range Keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) failed: %v", key, err)
		}
	}

	if err := cfg.Set("llm.providers", "A, B,,C"); err != nil {
		t.Fatalf("Set providers failed: %v", err)
	}
	if got, _ := cfg.Get("llm.providers"); got != "A,B,C" {
		t.Errorf("providers = %q, want %q", got, "A,B,C")
	}

	if err := cfg.Set("LLM.Checker_Timeout", "5s"); err != nil {
		t.Fatalf("Set checker timeout failed: %v", err)
	}
	if cfg.LLM.CheckerTimeout != 5*time.Second {
		t.Errorf("checker timeout = %v, want 5s", cfg.LLM.CheckerTimeout)
	}

	if err := cfg.Set("llm.api_key", "sk-or-v1-0123456789abcdef"); err != nil {
		t.Fatal(err)
	}
	if got, _ := cfg.Get("llm.api_key"); got != "sk-or-...cdef" {
		t.Errorf("api key display = %q, should be masked", got)
	}

	if err := cfg.Set("metrics.addr", "127.0.0.1:9464"); err != nil {
		t.Fatal(err)
	}
	if got, _ := cfg.Get("metrics.addr"); got != "127.0.0.1:9464" {
		t.Errorf("metrics.addr = %q, want 127.0.0.1:9464", got)
	}
}

func TestSet_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "llm.connect_timeout", value: "soon"},
		{key: "llm.decomposer_timeout", value: "-1s"},
		{key: "prompts.watch", value: "maybe"},
		{key: "logging.level", value: "chatty"},
		{key: "tui.input_limit", value: "0"},
		{key: "tui.input_limit", value: "many"},
		{key: "unknown.key", value: "x"},
	}
	for _, tt := range tests {
		cfg := Default()
		if err := cfg.Set(tt.key, tt.value); err == nil {
			t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
		}
	}
	if _, err := Default().Get("unknown.key"); err == nil {
		t.Error("Get(unknown.key) should fail")
	}
}
