package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Parser    ParserConfig    `yaml:"parser"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rewrite   RewriteConfig   `yaml:"rewrite"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DataConfig points at the on-disk datasets and the trained model dump.
type DataConfig struct {
	HistoryPath   string `yaml:"historyPath"`
	BaselinesPath string `yaml:"baselinesPath"`
	RawHealthPath string `yaml:"rawHealthPath"`
	ModelPath     string `yaml:"modelPath"`
}

// ParserConfig tunes intent resolution.
type ParserConfig struct {
	DefaultCountry string `yaml:"defaultCountry"`
	DefaultYear    int    `yaml:"defaultYear"`
}

// EmbeddingConfig configures the optional semantic-fallback embedding server.
type EmbeddingConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"baseURL"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// RewriteConfig configures the optional local LLM used to polish answers.
type RewriteConfig struct {
	Enabled         bool          `yaml:"enabled"`
	BaseURL         string        `yaml:"baseURL"`
	PreferredModels []string      `yaml:"preferredModels"`
	Temperature     float64       `yaml:"temperature"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Redis-backed caching of rewritten answers.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	RewriteTTL   time.Duration `yaml:"rewriteTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("AIRSIGHT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			HistoryPath:   "data/pm25_history.json",
			BaselinesPath: "data/health_baselines.json",
			RawHealthPath: "data/ihme_raw.json",
			ModelPath:     "data/pm25_model.json",
		},
		Parser: ParserConfig{
			DefaultCountry: "Myanmar",
			DefaultYear:    2026,
		},
		Embedding: EmbeddingConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434",
			Model:   "nomic-embed-text",
			Timeout: 5 * time.Second,
		},
		Rewrite: RewriteConfig{
			Enabled:     false,
			BaseURL:     "http://localhost:11434",
			Temperature: 0.4,
			Timeout:     20 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			RewriteTTL:   10 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIRSIGHT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("AIRSIGHT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("AIRSIGHT_HISTORY_PATH"); v != "" {
		cfg.Data.HistoryPath = v
	}
	if v := os.Getenv("AIRSIGHT_BASELINES_PATH"); v != "" {
		cfg.Data.BaselinesPath = v
	}
	if v := os.Getenv("AIRSIGHT_RAW_HEALTH_PATH"); v != "" {
		cfg.Data.RawHealthPath = v
	}
	if v := os.Getenv("AIRSIGHT_MODEL_PATH"); v != "" {
		cfg.Data.ModelPath = v
	}
	if v := os.Getenv("AIRSIGHT_DEFAULT_COUNTRY"); v != "" {
		cfg.Parser.DefaultCountry = v
	}
	if v := os.Getenv("AIRSIGHT_DEFAULT_YEAR"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			cfg.Parser.DefaultYear = y
		}
	}
	if v := os.Getenv("AIRSIGHT_EMBEDDING_ENABLED"); v != "" {
		cfg.Embedding.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("AIRSIGHT_EMBEDDING_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("AIRSIGHT_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("AIRSIGHT_REWRITE_ENABLED"); v != "" {
		cfg.Rewrite.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("AIRSIGHT_REWRITE_URL"); v != "" {
		cfg.Rewrite.BaseURL = v
	}
	if v := os.Getenv("AIRSIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AIRSIGHT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("AIRSIGHT_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("AIRSIGHT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("AIRSIGHT_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("AIRSIGHT_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("AIRSIGHT_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("AIRSIGHT_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("AIRSIGHT_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("AIRSIGHT_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("AIRSIGHT_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("AIRSIGHT_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("AIRSIGHT_CACHE_REWRITE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.RewriteTTL = d
		}
	}
}
