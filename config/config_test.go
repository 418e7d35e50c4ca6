package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `salesflow:
  name: "TestApp"
  version: "1.0"
channels:
  result_buffer: 4
processor:
  max_workers: 2
fetcher:
  base_url: "http://localhost:3000"
  timeout: 10s
  endpoints:
    movements: "/api/movements"
    agents: "/api/agents"
refresh:
  interval: 5m
aggregation:
  ignore_article_names:
    - "TRASPORTO"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Salesflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Salesflow.Name)
	}
	if cfg.Processor.MaxWorkers != 2 {
		t.Errorf("unexpected max workers: %d", cfg.Processor.MaxWorkers)
	}
	if cfg.Fetcher.Timeout != 10*time.Second {
		t.Errorf("unexpected fetcher timeout: %s", cfg.Fetcher.Timeout)
	}
	if cfg.Aggregation.TopBrandLimit != 10 {
		t.Errorf("expected default top brand limit, got %d", cfg.Aggregation.TopBrandLimit)
	}
	if len(cfg.Aggregation.IgnoreArticleNames) != 1 {
		t.Errorf("unexpected ignore list: %v", cfg.Aggregation.IgnoreArticleNames)
	}
}

func TestLoadConfigBaseURLOverride(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	t.Setenv("SALESFLOW_API_BASE_URL", "http://override:9000")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Fetcher.BaseURL != "http://override:9000" {
		t.Errorf("env override ignored: %s", cfg.Fetcher.BaseURL)
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	content := `salesflow:
  version: "1.0"
channels:
  result_buffer: 1
fetcher:
  base_url: "http://localhost"
  timeout: 1s
  endpoints:
    movements: "/m"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"", environmentDevelopment},
		{"prod", environmentProduction},
		{"stagging", environmentStaging},
		{"Production", environmentProduction},
	}
	for _, c := range cases {
		t.Setenv(appEnvVar, c.value)
		if got := AppEnvironment(); got != c.want {
			t.Errorf("AppEnvironment(%q) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestIsProductionLike(t *testing.T) {
	if !IsProductionLike(environmentProduction) || !IsProductionLike(environmentStaging) {
		t.Errorf("production and staging should be production-like")
	}
	if IsProductionLike(environmentDevelopment) {
		t.Errorf("development should not be production-like")
	}
}
