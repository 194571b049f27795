// Package ollama asks a local Ollama server for bibliographic metadata
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/llm"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const DefaultModel = "llama3.1"

// Generator calls the Ollama generate API
type Generator struct {
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// New returns the Ollama source; without a server URL it reports itself not ready
func New(baseURL, model string) *llm.Source {
	if model == "" {
		model = DefaultModel
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &llm.Source{
		Meta: models.SourceInfo{
			ID:          "ollama",
			Description: "Ollama (local model)",
			Link:        "https://ollama.com/",
		},
		Generator: &Generator{BaseURL: baseURL, Model: model, HTTPClient: web.NewHTTPClient()},
		Check: func() error {
			if baseURL == "" {
				return errors.New("OLLAMA_URL environment variable not set")
			}
			return nil
		},
	}
}

// Generate extracts text from the given prompt using Ollama
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":  g.Model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": g.Temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := web.PostJSON(ctx, g.HTTPClient, g.BaseURL+"/api/generate", nil, request, &response); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return response.Response, nil
}
