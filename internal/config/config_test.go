package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_DefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d5actions.toml")
	content := `
[database]
url = "postgres://localhost:5432/d5_test?sslmode=disable"

[ai]
api_key = "test-key"
temperature = 0.7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Fatalf("expected default address, got %q", cfg.Server.Address)
	}
	if cfg.AI.Model != "gemini-1.5-flash" {
		t.Fatalf("expected default model, got %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.7 {
		t.Fatalf("expected file temperature 0.7, got %v", cfg.AI.Temperature)
	}
	if cfg.Database.URL != "postgres://localhost:5432/d5_test?sslmode=disable" {
		t.Fatalf("unexpected database url %q", cfg.Database.URL)
	}
	if !cfg.Jobs.Enabled {
		t.Fatal("expected jobs enabled by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d5actions.toml")
	if err := os.WriteFile(path, []byte("[ai]\napi_key = \"from-file\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://env-host:5432/d5")
	t.Setenv("D5_AI_API_KEY", "from-env")
	t.Setenv("D5_AI_MAX_TOKENS", "1024")
	t.Setenv("D5_AI_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("D5_SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "postgres://env-host:5432/d5" {
		t.Fatalf("expected DATABASE_URL override, got %q", cfg.Database.URL)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Fatalf("expected env api key to beat the file, got %q", cfg.AI.APIKey)
	}
	if cfg.AI.MaxTokens != 1024 {
		t.Fatalf("expected env max tokens 1024, got %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.RequestsPerSecond != 2.5 {
		t.Fatalf("expected env requests per second 2.5, got %v", cfg.AI.RequestsPerSecond)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("expected env server address, got %q", cfg.Server.Address)
	}
}

func TestInitConfig_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d5actions.toml")

	if err := InitConfig(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := InitConfig(path); err == nil {
		t.Fatal("expected error for existing file")
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected generated sample to parse: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected sample address %q", cfg.Server.Address)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Database.URL = "postgres://localhost/d5"
	cfg.AI.APIKey = "key"
	cfg.AI.Temperature = 0.2
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := *cfg
	bad.Database.URL = "  "
	if err := Validate(&bad); err == nil {
		t.Fatal("expected error for missing database url")
	}

	bad = *cfg
	bad.AI.APIKey = ""
	if err := Validate(&bad); err == nil {
		t.Fatal("expected error for missing api key")
	}

	bad = *cfg
	bad.AI.Temperature = 3
	if err := Validate(&bad); err == nil {
		t.Fatal("expected error for out-of-range temperature")
	}
}
