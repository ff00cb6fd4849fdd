package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sd155/subtasker/internal/llm"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Endpoint != llm.DefaultEndpoint {
		t.Errorf("expected default endpoint %q, got %q", llm.DefaultEndpoint, cfg.LLM.Endpoint)
	}
	if cfg.LLM.Model != "qwen/qwen3-235b-a22b:free" {
		t.Errorf("expected default model, got %q", cfg.LLM.Model)
	}
	if !reflect.DeepEqual(cfg.LLM.Providers, []string{"Chutes"}) {
		t.Errorf("expected providers [Chutes], got %v", cfg.LLM.Providers)
	}
	if cfg.LLM.ConnectTimeout != 15*time.Second {
		t.Errorf("expected connect timeout 15s, got %v", cfg.LLM.ConnectTimeout)
	}
	if cfg.LLM.DecomposerTimeout != 60*time.Second {
		t.Errorf("expected decomposer timeout 60s, got %v", cfg.LLM.DecomposerTimeout)
	}
	if cfg.LLM.CheckerTimeout != 30*time.Second {
		t.Errorf("expected checker timeout 30s, got %v", cfg.LLM.CheckerTimeout)
	}
	if cfg.TUI.InputLimit != 4000 {
		t.Errorf("expected input limit 4000, got %d", cfg.TUI.InputLimit)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromPath_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("llm:\n  model: other/model\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	want := Default()
	want.LLM.Model = "other/model"
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("LoadFromPath = %+v, want %+v", cfg, want)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
llm:
  endpoint: http://localhost:8080/v1/chat/completions
  api_key: test-key
  model: local/model
  providers: [A, B]
  connect_timeout: 2s
  decomposer_timeout: 90s
  checker_timeout: 45s
prompts:
  path: /tmp/prompts.yaml
  watch: true
logging:
  level: debug
  path: /tmp/subtasker.log
tui:
  input_limit: 500
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.LLM.Endpoint != "http://localhost:8080/v1/chat/completions" {
		t.Errorf("expected local endpoint, got %q", cfg.LLM.Endpoint)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.LLM.APIKey)
	}
	if !reflect.DeepEqual(cfg.LLM.Providers, []string{"A", "B"}) {
		t.Errorf("expected providers [A B], got %v", cfg.LLM.Providers)
	}
	if cfg.LLM.ConnectTimeout != 2*time.Second {
		t.Errorf("expected connect timeout 2s, got %v", cfg.LLM.ConnectTimeout)
	}
	if cfg.LLM.DecomposerTimeout != 90*time.Second {
		t.Errorf("expected decomposer timeout 90s, got %v", cfg.LLM.DecomposerTimeout)
	}
	if cfg.LLM.CheckerTimeout != 45*time.Second {
		t.Errorf("expected checker timeout 45s, got %v", cfg.LLM.CheckerTimeout)
	}
	if cfg.Prompts.Path != "/tmp/prompts.yaml" || !cfg.Prompts.Watch {
		t.Errorf("unexpected prompts config %+v", cfg.Prompts)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Path != "/tmp/subtasker.log" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.TUI.InputLimit != 500 {
		t.Errorf("expected input limit 500, got %d", cfg.TUI.InputLimit)
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SUBTASKER_KEY", "sk-or-expanded")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("llm:\n  api_key: ${TEST_SUBTASKER_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-or-expanded" {
		t.Errorf("expected expanded key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.LLM.APIKey = "sk-or-v1-roundtrip"
	cfg.LLM.Providers = []string{"X"}
	cfg.LLM.CheckerTimeout = 12 * time.Second
	cfg.Prompts.Watch = true
	cfg.Metrics.Addr = "127.0.0.1:9464"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip = %+v, want %+v", loaded, cfg)
	}
}

func TestGatewayConfigs(t *testing.T) {
	cfg := Default()

	dec := cfg.DecomposerGateway("key")
	if dec.BearerToken != "key" || dec.RequestTimeout != 60*time.Second {
		t.Errorf("decomposer gateway = %+v", dec)
	}
	chk := cfg.CheckerGateway("key")
	if chk.RequestTimeout != 30*time.Second {
		t.Errorf("checker request timeout = %v, want 30s", chk.RequestTimeout)
	}
	if chk.ConnectTimeout != 15*time.Second || chk.ModelID != llm.DefaultModel {
		t.Errorf("checker gateway = %+v", chk)
	}

	chk.Providers[0] = "changed"
	if cfg.LLM.Providers[0] != "Chutes" {
		t.Error("gateway config should not share the providers slice")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/subtasker"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	projectFile := filepath.Join(root, ".subtasker.yaml")
	if err := os.WriteFile(projectFile, []byte("tui:\n  input_limit: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	got := findProjectConfig()
	gotResolved, _ := filepath.EvalSymlinks(got)
	wantResolved, _ := filepath.EvalSymlinks(projectFile)
	if gotResolved != wantResolved {
		t.Errorf("findProjectConfig() = %q, want %q", got, projectFile)
	}
}

func TestLoad_ProjectOverrideAndEnv(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("SUBTASKER_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-from-env")

	userDir := filepath.Join(xdg, "subtasker")
	if err := os.MkdirAll(userDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte("llm:\n  model: user/model\ntui:\n  input_limit: 100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ".subtasker.yaml"), []byte("tui:\n  input_limit: 200\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Model != "user/model" {
		t.Errorf("expected user model, got %q", cfg.LLM.Model)
	}
	if cfg.TUI.InputLimit != 200 {
		t.Errorf("expected project input limit 200, got %d", cfg.TUI.InputLimit)
	}
	if cfg.LLM.APIKey != "sk-or-from-env" {
		t.Errorf("expected env api key, got %q", cfg.LLM.APIKey)
	}
}
