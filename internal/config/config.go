package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Models     ModelsConfig     `yaml:"models"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Intent     IntentConfig     `yaml:"intent"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Validation ValidationConfig `yaml:"validation"`
	Dialogue   DialogueConfig   `yaml:"dialogue"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig holds the Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// CatalogConfig points at the menu and inventory documents
type CatalogConfig struct {
	MenuPath      string `yaml:"menu_path"`
	InventoryPath string `yaml:"inventory_path"`
}

// BackendConfig selects and configures one inference backend
type BackendConfig struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Deployment  string  `yaml:"deployment"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Dimensions  int     `yaml:"dimensions"`
}

// ModelsConfig groups the backends used by each model-driven stage
type ModelsConfig struct {
	Extraction BackendConfig `yaml:"extraction"`
	Classifier BackendConfig `yaml:"classifier"`
	Embeddings BackendConfig `yaml:"embeddings"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	Burst      int           `yaml:"burst"`
}

// MatcherConfig holds fuzzy and semantic matching thresholds
type MatcherConfig struct {
	HighThreshold  float64 `yaml:"high_threshold"`
	LowThreshold   float64 `yaml:"low_threshold"`
	FuzzyWeight    float64 `yaml:"fuzzy_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	TopK           int     `yaml:"top_k"`
	TieMargin      float64 `yaml:"tie_margin"`
}

// IntentConfig holds intent classification settings
type IntentConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// ExtractionConfig holds order extraction settings
type ExtractionConfig struct {
	RepairAttempts int `yaml:"repair_attempts"`
}

// ValidationConfig holds order validation settings
type ValidationConfig struct {
	RoomMin          int `yaml:"room_min"`
	RoomMax          int `yaml:"room_max"`
	MaxSubstitutions int `yaml:"max_substitutions"`
}

// DialogueConfig holds conversation settings
type DialogueConfig struct {
	MaxRetries      int           `yaml:"max_retries"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// StoreConfig selects the order registry backend
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CacheConfig configures the optional shared embedding cache
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{Level: "info"},
		Catalog: CatalogConfig{
			MenuPath:      "data/menu.json",
			InventoryPath: "data/inventory.json",
		},
		Models: ModelsConfig{
			Extraction: BackendConfig{Backend: "none", Temperature: 0, MaxTokens: 800},
			Classifier: BackendConfig{Backend: "none", Temperature: 0, MaxTokens: 200},
			Embeddings: BackendConfig{Backend: "hashing", Dimensions: 512},
			Timeout:    10 * time.Second,
			RateLimit:  5,
			Burst:      10,
		},
		Matcher: MatcherConfig{
			HighThreshold:  0.85,
			LowThreshold:   0.55,
			FuzzyWeight:    0.5,
			SemanticWeight: 0.5,
			TopK:           3,
			TieMargin:      0.05,
		},
		Intent:     IntentConfig{Threshold: 0.5},
		Extraction: ExtractionConfig{RepairAttempts: 1},
		Validation: ValidationConfig{RoomMin: 100, RoomMax: 999, MaxSubstitutions: 3},
		Dialogue: DialogueConfig{
			MaxRetries:      3,
			SessionTTL:      30 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Store: StoreConfig{Driver: "memory"},
		Cache: CacheConfig{TTL: 24 * time.Hour},
	}
}

// Load reads a YAML configuration file on top of the defaults. A missing
// file is not an error; the defaults and environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets and endpoints from the environment
func (c *Config) applyEnv() {
	for _, b := range []*BackendConfig{&c.Models.Extraction, &c.Models.Classifier, &c.Models.Embeddings} {
		if b.APIKey != "" {
			continue
		}
		switch b.Backend {
		case "openai", "goopenai":
			b.APIKey = os.Getenv("OPENAI_API_KEY")
		case "github":
			b.APIKey = os.Getenv("GITHUB_TOKEN")
		case "genai":
			b.APIKey = os.Getenv("GEMINI_API_KEY")
		case "azure":
			b.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
			if b.BaseURL == "" {
				b.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
			}
			if b.Deployment == "" {
				b.Deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME")
			}
		}
	}

	if addr := os.Getenv("ROOMSERVICE_REDIS_ADDR"); addr != "" {
		c.Cache.RedisAddr = addr
	}
	if dsn := os.Getenv("ROOMSERVICE_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	m := c.Matcher
	if m.LowThreshold < 0 || m.HighThreshold > 1 || m.LowThreshold >= m.HighThreshold {
		return fmt.Errorf("matcher thresholds must satisfy 0 <= low < high <= 1, got low=%.2f high=%.2f", m.LowThreshold, m.HighThreshold)
	}
	if m.FuzzyWeight < 0 || m.SemanticWeight < 0 || m.FuzzyWeight+m.SemanticWeight == 0 {
		return fmt.Errorf("matcher weights must be non-negative and not both zero")
	}
	if m.TopK < 1 {
		return fmt.Errorf("matcher top_k must be at least 1")
	}
	if c.Intent.Threshold <= 0 || c.Intent.Threshold > 1 {
		return fmt.Errorf("intent threshold must be in (0, 1], got %.2f", c.Intent.Threshold)
	}
	if c.Extraction.RepairAttempts < 0 {
		return fmt.Errorf("extraction repair_attempts must not be negative")
	}
	if c.Validation.RoomMin < 1 || c.Validation.RoomMin > c.Validation.RoomMax {
		return fmt.Errorf("room range %d-%d is invalid", c.Validation.RoomMin, c.Validation.RoomMax)
	}
	if c.Dialogue.MaxRetries < 1 {
		return fmt.Errorf("dialogue max_retries must be at least 1")
	}
	if c.Dialogue.SessionTTL <= 0 {
		return fmt.Errorf("dialogue session_ttl must be positive")
	}
	switch c.Store.Driver {
	case "memory", "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if c.Server.Port <= 0 || (c.Metrics.Enabled && c.Metrics.Port <= 0) {
		return fmt.Errorf("server and metrics ports must be positive")
	}
	return nil
}
