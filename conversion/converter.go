package conversion

import (
	"context"
	"strings"

	"github.com/teilomillet/codeshift/conversation"
)

// Config selects the language pair and the prompt templates. Empty fields
// fall back to Ada, Python and the Default*Template constants.
type Config struct {
	SourceLanguage       string
	TargetLanguage       string
	SystemPromptTemplate string
	DirectiveTemplate    string
}

// Converter sends source code through its own conversation and returns the
// model's raw reply. Apart from that conversation it holds no state.
type Converter struct {
	client     *conversation.Client
	directive  string
	convention Convention
}

// NewConverter renders the task prompts and creates the underlying
// conversation.Client with the task system prompt. The SystemPrompt of
// clientCfg is ignored.
func NewConverter(cfg Config, clientCfg conversation.Config, backend conversation.Backend, opts ...conversation.Option) (*Converter, error) {
	langs := Languages{Source: cfg.SourceLanguage, Target: cfg.TargetLanguage}
	if strings.TrimSpace(langs.Source) == "" {
		langs.Source = "Ada"
	}
	if strings.TrimSpace(langs.Target) == "" {
		langs.Target = "Python"
	}

	systemTmpl := cfg.SystemPromptTemplate
	if systemTmpl == "" {
		systemTmpl = DefaultSystemPromptTemplate
	}
	directiveTmpl := cfg.DirectiveTemplate
	if directiveTmpl == "" {
		directiveTmpl = DefaultDirectiveTemplate
	}

	systemPrompt, err := render("system_prompt", systemTmpl, langs)
	if err != nil {
		return nil, err
	}
	directive, err := render("directive", directiveTmpl, langs)
	if err != nil {
		return nil, err
	}

	clientCfg.SystemPrompt = systemPrompt
	client, err := conversation.New(clientCfg, backend, opts...)
	if err != nil {
		return nil, err
	}

	return &Converter{
		client:     client,
		directive:  directive,
		convention: NewConvention(langs.Target),
	}, nil
}

// Convert submits source, prefixed with the directive and otherwise passed
// through untouched, and returns the reply exactly as received.
func (c *Converter) Convert(ctx context.Context, source string) (string, error) {
	return c.client.Exchange(ctx, c.directive+source)
}

// Decompose splits a reply produced by Convert using the headings this
// converter asked for.
func (c *Converter) Decompose(raw string) Decomposed {
	return c.convention.Decompose(raw)
}

// Client exposes the underlying conversation.
func (c *Converter) Client() *conversation.Client {
	return c.client
}
