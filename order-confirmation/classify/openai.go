package classify

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAICompleter sends prompts to the OpenAI chat completions API at temperature 0
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a completer for the given key and model
func NewOpenAICompleter(apiKey, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", errAPIKeyRequired)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAICompleter{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: math.SmallestNonzeroFloat32, // zero is dropped by omitempty
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewCompleter picks a completer by provider name ("anthropic" or "openai")
func NewCompleter(provider, model, anthropicKey, openaiKey string) (Completer, error) {
	switch provider {
	case "", "anthropic":
		c, err := NewAnthropicCompleter(anthropicKey, model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAICompleter(openaiKey, model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", provider)
	}
}
