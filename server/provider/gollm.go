package provider

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"

	"github.com/teilomillet/codeshift/conversation"
)

type llmFactory func(provider, model, apiKey string) (gollm.LLM, error)

func newGollm(provider, model, apiKey string) (gollm.LLM, error) {
	return gollm.NewLLM(
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetAPIKey(apiKey),
	)
}

// GollmCompleter sends transcripts through a gollm.LLM. The model is fixed
// when the LLM is created, so the model argument of Complete is ignored.
type GollmCompleter struct {
	llm gollm.LLM
}

var _ conversation.Completer = (*GollmCompleter)(nil)

// NewGollmCompleter creates a gollm LLM for provider. endpoint, when set,
// overrides the provider's default API endpoint.
func NewGollmCompleter(factory llmFactory, provider, model, apiKey, endpoint string) (*GollmCompleter, error) {
	llm, err := factory(provider, model, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", provider, err)
	}
	if endpoint != "" {
		if provider == "ollama" {
			if err := llm.SetOllamaEndpoint(endpoint); err != nil {
				return nil, fmt.Errorf("set ollama endpoint: %w", err)
			}
		} else {
			llm.SetEndpoint(endpoint)
		}
	}
	return &GollmCompleter{llm: llm}, nil
}

// Complete maps the transcript 1:1 onto prompt messages.
func (g *GollmCompleter) Complete(ctx context.Context, _ string, messages []conversation.Message) (string, error) {
	prompt := &gollm.Prompt{
		Messages: make([]gollm.PromptMessage, 0, len(messages)),
	}
	for _, m := range messages {
		prompt.Messages = append(prompt.Messages, gollm.PromptMessage{
			Role:    string(m.Role()),
			Content: m.Content(),
		})
	}

	return g.llm.Generate(ctx, prompt)
}
