// Package gemini asks Google Gemini for bibliographic metadata about a title
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/llm"
)

const DefaultModel = "gemini-1.5-flash"

// Generator calls the Gemini API through the genai client
type Generator struct {
	APIKey      string
	Model       string
	Temperature float32
	// Options are appended after the API key, e.g. a custom endpoint
	Options []option.ClientOption
}

// New returns the Gemini source; without an API key it reports itself not ready
func New(apiKey, model string) *llm.Source {
	if model == "" {
		model = DefaultModel
	}
	return &llm.Source{
		Meta: models.SourceInfo{
			ID:          "gemini",
			Description: "Google Gemini",
			Link:        "https://ai.google.dev/",
		},
		Generator: &Generator{APIKey: apiKey, Model: model},
		Check: func() error {
			if apiKey == "" {
				return errors.New("GEMINI_API_KEY environment variable not set")
			}
			return nil
		},
	}
}

// Generate sends prompt to the configured model and returns the first text part
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.APIKey)}, g.Options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SetTemperature(g.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
