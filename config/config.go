// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr        string
	DBPath      string
	AdminIDs    []string
	SessionTTL  time.Duration
	ReapEvery   time.Duration
	SearchLimit int
	LogLevel    string
	Classifier  ClassifierConfig
}

// ClassifierConfig selects and tunes the intent-classifier provider.
type ClassifierConfig struct {
	// Provider is one of "openai", "anthropic" or "keyword".
	Provider string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv("ADDR", ":8080"),
		DBPath:      getEnv("DB_PATH", "./data/wahisper.db"),
		AdminIDs:    getEnvList("ADMIN_IDS"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 30*time.Minute),
		ReapEvery:   getEnvDuration("SESSION_REAP_EVERY", time.Minute),
		SearchLimit: getEnvInt("SEARCH_LIMIT", 5),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Classifier: ClassifierConfig{
			Provider: getEnv("CLASSIFIER_PROVIDER", "keyword"),
			Model:    getEnv("CLASSIFIER_MODEL", ""),
			APIKey:   getEnv("CLASSIFIER_API_KEY", ""),
			Timeout:  getEnvDuration("CLASSIFIER_TIMEOUT", 8*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.ReapEvery <= 0 {
		return fmt.Errorf("SESSION_REAP_EVERY must be > 0")
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be > 0")
	}
	switch c.Classifier.Provider {
	case "keyword":
	case "openai", "anthropic":
		if c.Classifier.APIKey == "" && os.Getenv(providerKeyVar(c.Classifier.Provider)) == "" {
			return fmt.Errorf("CLASSIFIER_API_KEY required for provider %q", c.Classifier.Provider)
		}
	default:
		return fmt.Errorf("unknown CLASSIFIER_PROVIDER %q", c.Classifier.Provider)
	}
	return nil
}

func providerKeyVar(provider string) string {
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
