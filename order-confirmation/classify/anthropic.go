package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

var errAPIKeyRequired = errors.New("API key required")

// AnthropicCompleter sends prompts to the Anthropic Messages API
type AnthropicCompleter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicCompleter creates a completer; the SDK retries 429 and 5xx responses itself
func NewAnthropicCompleter(apiKey, model string) (*AnthropicCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", errAPIKeyRequired)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(3)),
		model:     anthropic.Model(model),
		maxTokens: 512,
	}, nil
}

func (a *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("unexpected response format: no text block")
}
