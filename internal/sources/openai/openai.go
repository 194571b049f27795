// Package openai asks the OpenAI chat completions API for bibliographic metadata
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/llm"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Generator calls the chat completions endpoint
type Generator struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

// New returns the OpenAI source; without an API key it reports itself not ready
func New(apiKey, model string) *llm.Source {
	if model == "" {
		model = DefaultModel
	}
	return &llm.Source{
		Meta: models.SourceInfo{
			ID:          "openai",
			Description: "OpenAI",
			Link:        "https://platform.openai.com/",
		},
		Generator: &Generator{APIKey: apiKey, Model: model, BaseURL: DefaultBaseURL, HTTPClient: web.NewHTTPClient()},
		Check: func() error {
			if apiKey == "" {
				return errors.New("OPENAI_API_KEY environment variable not set")
			}
			return nil
		},
	}
}

// Generate extracts text from the given prompt using OpenAI
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model": g.Model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": g.Temperature,
	}
	header := http.Header{"Authorization": []string{"Bearer " + g.APIKey}}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := web.PostJSON(ctx, g.HTTPClient, g.BaseURL+"/chat/completions", header, request, &response); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return response.Choices[0].Message.Content, nil
}
