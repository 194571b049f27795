// Package config reads process configuration from the environment
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lehigh-university-libraries/bookmeta/internal/storage"
)

// Config holds everything the commands need to wire sources, storage and the dispatcher
type Config struct {
	SettingsPath  string        `validate:"required"`
	DBPath        string        `validate:"required"`
	SourceTimeout time.Duration `validate:"gt=0"`
	BatchTimeout  time.Duration `validate:"gt=0"`
	GenericCover  string

	GoogleBooksAPIKey string
	GeminiAPIKey      string
	GeminiModel       string `validate:"required"`
	OllamaURL         string `validate:"omitempty,url"`
	OllamaModel       string `validate:"required"`
	OpenAIAPIKey      string
	OpenAIModel       string `validate:"required"`
	VufindURL         string `validate:"omitempty,url"`
	IBDataset         string
	AmazonBaseURL     string `validate:"required,url"`
}

// FromEnv builds a Config from environment variables, falling back to defaults for unset ones
func FromEnv() (Config, error) {
	cfg := Config{
		SettingsPath:      getenv("BOOKMETA_SETTINGS", "bookmeta.yaml"),
		DBPath:            getenv("BOOKMETA_DB", storage.DefaultDBPath()),
		GenericCover:      getenv("BOOKMETA_COVER_FALLBACK", "/static/generic_cover.jpg"),
		GoogleBooksAPIKey: os.Getenv("GOOGLE_BOOKS_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		OllamaURL:         strings.TrimRight(os.Getenv("OLLAMA_URL"), "/"),
		OllamaModel:       getenv("OLLAMA_MODEL", "llama3.1"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-4o-mini"),
		VufindURL:         strings.TrimRight(os.Getenv("VUFIND_URL"), "/"),
		IBDataset:         os.Getenv("IB_DATASET"),
		AmazonBaseURL:     strings.TrimRight(getenv("AMAZON_BASE_URL", "https://www.amazon.com"), "/"),
	}

	var err error
	if cfg.SourceTimeout, err = duration("BOOKMETA_SOURCE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BatchTimeout, err = duration("BOOKMETA_BATCH_TIMEOUT", 45*time.Second); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return d, nil
}
