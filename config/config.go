// Package config loads foodagent settings from a YAML file, an optional
// .env file and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all foodagent configuration.
type Config struct {
	Session   SessionConfig   `yaml:"session"`
	Engine    EngineConfig    `yaml:"engine"`
	LLM       LLMConfig       `yaml:"llm"`
	Inventory InventoryConfig `yaml:"inventory"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Store       string `yaml:"store"` // memory, redis
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	TTL         string `yaml:"ttl"`
	MaxSessions int    `yaml:"max_sessions"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// EngineConfig tunes the dialogue.
type EngineConfig struct {
	MaxAttempts     int    `yaml:"max_attempts"`
	AttemptPolicy   string `yaml:"attempt_policy"` // every_round, extracted_only
	HistoryMessages int    `yaml:"history_messages"`
	HistoryTokens   int    `yaml:"history_tokens"`
}

// LLMConfig configures the Gemini extractor.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// InventoryConfig selects where completed records go.
type InventoryConfig struct {
	Backend       string `yaml:"backend"` // sqlite, supabase
	DatabasePath  string `yaml:"database_path"`
	SupabaseURL   string `yaml:"supabase_url"`
	SupabaseKey   string `yaml:"supabase_key"`
	SupabaseTable string `yaml:"supabase_table"`
	SupabaseCache string `yaml:"supabase_cache_ttl"`
}

// CatalogConfig enables the vector catalog food-name check.
type CatalogConfig struct {
	Enabled        bool    `yaml:"enabled"`
	QdrantURL      string  `yaml:"qdrant_url"`
	QdrantAPIKey   string  `yaml:"qdrant_api_key"`
	Collection     string  `yaml:"collection"`
	EmbeddingModel string  `yaml:"embedding_model"`
	MinScore       float32 `yaml:"min_score"`
	SeedFile       string  `yaml:"seed_file"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a configuration that runs locally with an in-memory session
// store and a SQLite inventory.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Store:       "memory",
			RedisAddr:   "localhost:6379",
			TTL:         "24h",
			MaxSessions: 4096,
			KeyPrefix:   "foodagent:session:",
		},
		Engine: EngineConfig{
			MaxAttempts:     7,
			AttemptPolicy:   "every_round",
			HistoryMessages: 40,
			HistoryTokens:   4000,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			Timeout:     "30s",
		},
		Inventory: InventoryConfig{
			Backend:       "sqlite",
			DatabasePath:  "foodagent.db",
			SupabaseTable: "food_stock",
			SupabaseCache: "5m",
		},
		Catalog: CatalogConfig{
			Collection:     "food_catalog",
			EmbeddingModel: "gemini-embedding-001",
			MinScore:       0.82,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (missing files yield defaults), then envFile if given, then
// applies environment overrides.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("FOODAGENT_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if store := os.Getenv("FOODAGENT_SESSION_STORE"); store != "" {
		c.Session.Store = store
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Session.RedisAddr = addr
	}

	if backend := os.Getenv("FOODAGENT_INVENTORY"); backend != "" {
		c.Inventory.Backend = backend
	}
	if path := os.Getenv("FOODAGENT_DB"); path != "" {
		c.Inventory.DatabasePath = path
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		c.Inventory.SupabaseURL = url
	}
	if key := os.Getenv("SUPABASE_KEY"); key != "" {
		c.Inventory.SupabaseKey = key
	}

	if url := os.Getenv("QDRANT_URL"); url != "" {
		c.Catalog.QdrantURL = url
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		c.Catalog.QdrantAPIKey = key
	}

	if n, err := strconv.Atoi(os.Getenv("FOODAGENT_MAX_ATTEMPTS")); err == nil {
		c.Engine.MaxAttempts = n
	}
	if level := os.Getenv("FOODAGENT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks store names, backends and durations.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case "memory", "":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("%w: session.redis_addr is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, c.Session.Store)
	}

	switch c.Engine.AttemptPolicy {
	case "every_round", "extracted_only", "":
	default:
		return fmt.Errorf("%w: unknown attempt policy %q", ErrInvalidConfig, c.Engine.AttemptPolicy)
	}
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("%w: engine.max_attempts must be positive", ErrInvalidConfig)
	}

	switch c.Inventory.Backend {
	case "sqlite":
		if c.Inventory.DatabasePath == "" {
			return fmt.Errorf("%w: inventory.database_path is required", ErrInvalidConfig)
		}
	case "supabase":
		if c.Inventory.SupabaseURL == "" || c.Inventory.SupabaseKey == "" {
			return fmt.Errorf("%w: supabase url and key are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown inventory backend %q", ErrInvalidConfig, c.Inventory.Backend)
	}

	if c.Catalog.Enabled && c.Catalog.QdrantURL == "" {
		return fmt.Errorf("%w: catalog.qdrant_url is required when the catalog is enabled", ErrInvalidConfig)
	}

	for name, d := range map[string]string{
		"session.ttl":                  c.Session.TTL,
		"llm.timeout":                  c.LLM.Timeout,
		"inventory.supabase_cache_ttl": c.Inventory.SupabaseCache,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

// SessionTTL returns the session TTL, falling back to 24h.
func (c *Config) SessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, 24*time.Hour)
}

// LLMTimeout returns the per-call extractor timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 30*time.Second)
}

// SupabaseCacheTTL returns how long fetched rows are cached.
func (c *Config) SupabaseCacheTTL() time.Duration {
	return parseDuration(c.Inventory.SupabaseCache, 5*time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
