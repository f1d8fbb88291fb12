// Package gemini wraps the Google GenAI SDK for single-prompt text
// generation.
package gemini

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Config configures NewClient.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
}

type sdkClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &sdkClient{client: client, model: model, temperature: cfg.Temperature}, nil
}

func (c *sdkClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}
	return strings.TrimSpace(result.Text()), nil
}
