package conversation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSystemPrompt is used when Config.SystemPrompt is empty.
	DefaultSystemPrompt = "You are a helpful assistant."

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gpt-3.5-turbo"

	// CredentialEnv is consulted when Config.APIKey is empty.
	CredentialEnv = "OPENAI_API_KEY"
)

// Completer is the completion service contract: the full ordered transcript
// and a model identifier in, a single reply text out. An empty reply means
// the service produced no content.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, model string, messages []Message) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	return f(ctx, model, messages)
}

// Backend builds a Completer once the credential has been resolved.
type Backend func(apiKey string) (Completer, error)

// Config holds the per-client settings. Empty fields fall back to the
// package defaults; an empty APIKey falls back to CredentialEnv.
type Config struct {
	SystemPrompt string
	Model        string
	APIKey       string
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger attaches a logger used for debug tracing of exchanges.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for credential resolution.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(c *Client) {
		if lookup != nil {
			c.lookupEnv = lookup
		}
	}
}

// Client holds one conversation with the completion service.
//
// A Client is not safe for concurrent use: Exchange reads the transcript,
// waits on the service, then appends to it. Callers that share a Client
// across goroutines must serialize access themselves.
type Client struct {
	completer    Completer
	systemPrompt string
	model        string
	messages     []Message
	logger       *zap.Logger
	lookupEnv    func(string) (string, bool)
}

// New resolves the credential and creates a Client whose transcript holds
// exactly one system message. It fails with ErrMissingCredential when no
// credential can be found.
func New(cfg Config, backend Backend, opts ...Option) (*Client, error) {
	c := &Client{
		systemPrompt: cfg.SystemPrompt,
		model:        cfg.Model,
		logger:       zap.NewNop(),
		lookupEnv:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.systemPrompt == "" {
		c.systemPrompt = DefaultSystemPrompt
	}
	if c.model == "" {
		c.model = DefaultModel
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey, _ = c.lookupEnv(CredentialEnv)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	if backend == nil {
		return nil, fmt.Errorf("completion backend is required")
	}
	completer, err := backend(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create completer: %w", err)
	}
	c.completer = completer
	c.messages = []Message{System(c.systemPrompt)}

	return c, nil
}

// Exchange sends text as a new user message, together with the whole
// transcript, and returns the reply. The transcript is only extended, by
// the user message followed by the reply, when the call succeeds; on any
// error it is left exactly as it was. Errors from the completion service
// are returned unmodified.
func (c *Client) Exchange(ctx context.Context, text string) (string, error) {
	outbound := make([]Message, len(c.messages), len(c.messages)+1)
	copy(outbound, c.messages)
	outbound = append(outbound, User(text))

	start := time.Now()
	reply, err := c.completer.Complete(ctx, c.model, outbound)
	if err != nil {
		c.logger.Debug("exchange failed",
			zap.String("model", c.model),
			zap.Int("messages", len(outbound)),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		c.logger.Debug("exchange returned no content",
			zap.String("model", c.model),
			zap.Int("messages", len(outbound)),
		)
		return "", ErrEmptyResponse
	}

	c.messages = append(outbound, Assistant(reply))

	c.logger.Debug("exchange completed",
		zap.String("model", c.model),
		zap.Int("transcript_length", len(c.messages)),
		zap.Int("reply_length", len(reply)),
		zap.Duration("latency", time.Since(start)),
	)
	return reply, nil
}

// Messages returns a copy of the transcript.
func (c *Client) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SystemPrompt returns the prompt the transcript starts with.
func (c *Client) SystemPrompt() string {
	return c.systemPrompt
}

// Model returns the model identifier sent with every exchange.
func (c *Client) Model() string {
	return c.model
}
