package provider

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/teilomillet/codeshift/conversation"
)

// OpenAICompleter sends transcripts to the Chat Completions API.
type OpenAICompleter struct {
	client openai.Client
}

var _ conversation.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter creates a completer for apiKey. An empty baseURL uses
// the SDK default. SDK retries are disabled; a failed call is reported as is.
func NewOpenAICompleter(apiKey, baseURL string, httpClient *http.Client) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAICompleter{client: openai.NewClient(opts...)}
}

// Complete returns the content of the first choice, or "" when the
// response carries none.
func (o *OpenAICompleter) Complete(ctx context.Context, model string, messages []conversation.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		param, err := toChatMessageParam(m)
		if err != nil {
			return "", err
		}
		params.Messages = append(params.Messages, param)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessageParam(m conversation.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role() {
	case conversation.RoleSystem:
		return openai.SystemMessage(m.Content()), nil
	case conversation.RoleUser:
		return openai.UserMessage(m.Content()), nil
	case conversation.RoleAssistant:
		return openai.AssistantMessage(m.Content()), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", m.Role())
	}
}
