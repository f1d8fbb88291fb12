package brain

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kb-resolver/pkg/anthropic"
	"github.com/sells-group/kb-resolver/pkg/gemini"
)

// DefaultAnthropicModel is used when AnthropicConfig.Model is empty.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicConfig configures the Anthropic deployment.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

type anthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator adapts an Anthropic client to Generator.
func NewAnthropicGenerator(client anthropic.Client, model string, maxTokens int64) Generator {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &anthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := 0.0
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      []anthropic.SystemBlock{{Text: SystemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(g.model, "brain")
	return resp.Text(), nil
}

// AnthropicDeployment returns a deployment that builds an Anthropic client
// on connect. Missing credentials fail the connect, not New.
func AnthropicDeployment(name string, cfg AnthropicConfig) Deployment {
	return Deployment{
		Name: name,
		Connect: func(context.Context) (Generator, error) {
			if cfg.APIKey == "" {
				return nil, eris.New("anthropic: api key is required")
			}
			return NewAnthropicGenerator(anthropic.NewClient(cfg.APIKey, cfg.BaseURL), cfg.Model, cfg.MaxTokens), nil
		},
	}
}

type geminiGenerator struct {
	client gemini.Client
}

// NewGeminiGenerator adapts a Gemini client to Generator.
func NewGeminiGenerator(client gemini.Client) Generator {
	return &geminiGenerator{client: client}
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.Generate(ctx, prompt, SystemPrompt)
}

// GeminiDeployment returns a deployment that creates a new Gemini client on
// every connect.
func GeminiDeployment(name string, cfg gemini.Config) Deployment {
	return Deployment{
		Name: name,
		Connect: func(ctx context.Context) (Generator, error) {
			c, err := gemini.NewClient(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return NewGeminiGenerator(c), nil
		},
	}
}
