// Package sources wires the concrete metadata sources into a registry
package sources

import (
	"fmt"

	"github.com/lehigh-university-libraries/bookmeta/internal/config"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/amazon"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/dnb"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/gemini"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/google"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/ibcatalog"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/ollama"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/openai"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/openlibrary"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/vufind"
)

// Defaults builds every built-in source from cfg
func Defaults(cfg config.Config) []providers.Provider {
	return []providers.Provider{
		google.New(cfg.GoogleBooksAPIKey),
		openlibrary.New(),
		dnb.New(),
		vufind.New(cfg.VufindURL),
		ibcatalog.New(cfg.IBDataset),
		amazon.New(cfg.AmazonBaseURL),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		ollama.New(cfg.OllamaURL, cfg.OllamaModel),
	}
}

// RegisterDefaults registers the built-in sources. Sources missing a credential
// or dataset are registered inactive.
func RegisterDefaults(reg *providers.Registry, cfg config.Config) error {
	for _, p := range Defaults(cfg) {
		if err := reg.Register(p); err != nil {
			return fmt.Errorf("failed to register source %s: %w", p.Info().ID, err)
		}
	}
	return nil
}
