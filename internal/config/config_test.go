package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected server address %q", cfg.Server.Address)
	}
	if cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("unexpected metrics address %q", cfg.Server.MetricsAddress)
	}
	if cfg.Parser.DefaultCountry != "Myanmar" || cfg.Parser.DefaultYear != 2026 {
		t.Fatalf("unexpected parser defaults: %+v", cfg.Parser)
	}
	if cfg.Rewrite.Enabled || cfg.Embedding.Enabled || cfg.Cache.Enabled {
		t.Fatalf("optional integrations should default off")
	}
	if cfg.Cache.RewriteTTL != 10*time.Minute {
		t.Fatalf("unexpected rewrite TTL %v", cfg.Cache.RewriteTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.JSON {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
  gracefulTimeout: 5s
data:
  historyPath: /data/history.json
parser:
  defaultCountry: Thailand
  defaultYear: 2027
rewrite:
  enabled: true
  preferredModels: ["llama3.2", "mistral"]
logging:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("unexpected address %q", cfg.Server.Address)
	}
	if cfg.Server.GracefulTimeout != 5*time.Second {
		t.Fatalf("unexpected graceful timeout %v", cfg.Server.GracefulTimeout)
	}
	if cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("unset fields keep defaults, got %q", cfg.Server.MetricsAddress)
	}
	if cfg.Data.HistoryPath != "/data/history.json" {
		t.Fatalf("unexpected history path %q", cfg.Data.HistoryPath)
	}
	if cfg.Parser.DefaultCountry != "Thailand" || cfg.Parser.DefaultYear != 2027 {
		t.Fatalf("unexpected parser config: %+v", cfg.Parser)
	}
	if !cfg.Rewrite.Enabled || len(cfg.Rewrite.PreferredModels) != 2 {
		t.Fatalf("unexpected rewrite config: %+v", cfg.Rewrite)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AIRSIGHT_SERVER_ADDRESS", ":7070")
	t.Setenv("AIRSIGHT_DEFAULT_COUNTRY", "Vietnam")
	t.Setenv("AIRSIGHT_DEFAULT_YEAR", "2030")
	t.Setenv("AIRSIGHT_REWRITE_ENABLED", "true")
	t.Setenv("AIRSIGHT_LOG_FORMAT", "json")
	t.Setenv("AIRSIGHT_CACHE_ENABLED", "1")
	t.Setenv("AIRSIGHT_CACHE_ADDR", "localhost:6379")
	t.Setenv("AIRSIGHT_CACHE_REWRITE_TTL", "30m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("env override failed for address: %q", cfg.Server.Address)
	}
	if cfg.Parser.DefaultCountry != "Vietnam" || cfg.Parser.DefaultYear != 2030 {
		t.Fatalf("env override failed for parser: %+v", cfg.Parser)
	}
	if !cfg.Rewrite.Enabled {
		t.Fatalf("env override failed for rewrite")
	}
	if !cfg.Logging.JSON {
		t.Fatalf("env override failed for log format")
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "localhost:6379" {
		t.Fatalf("env override failed for cache: %+v", cfg.Cache)
	}
	if cfg.Cache.RewriteTTL != 30*time.Minute {
		t.Fatalf("env override failed for TTL: %v", cfg.Cache.RewriteTTL)
	}
}

func TestEnvInvalidYearIgnored(t *testing.T) {
	t.Setenv("AIRSIGHT_DEFAULT_YEAR", "soon")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Parser.DefaultYear != 2026 {
		t.Fatalf("invalid year should keep default, got %d", cfg.Parser.DefaultYear)
	}
}
