package validation

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know, e.g. models
// served through gollm by other providers.
const fallbackEncoding = "cl100k_base"

// Tokenizer counts the tokens of a text.
type Tokenizer interface {
	CountTokens(text string) int
}

// tiktokenWrapper wraps tiktoken to implement our Tokenizer interface
type tiktokenWrapper struct {
	*tiktoken.Tiktoken
}

func (t *tiktokenWrapper) CountTokens(text string) int {
	return len(t.Encode(text, nil, nil))
}

// TokenCounter estimates how much of the model context a source upload uses.
type TokenCounter struct {
	encoding Tokenizer
}

// NewTokenCounter creates a counter using the encoding of model. Loading an
// encoding may download its BPE ranks on first use.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
		}
	}
	return &TokenCounter{encoding: &tiktokenWrapper{encoding}}, nil
}

// NewTokenCounterWith creates a counter backed by t.
func NewTokenCounterWith(t Tokenizer) *TokenCounter {
	return &TokenCounter{encoding: t}
}

// Count returns the total number of tokens in texts.
func (tc *TokenCounter) Count(texts ...string) int {
	total := 0
	for _, text := range texts {
		total += tc.encoding.CountTokens(text)
	}
	return total
}

// ValidateTokens checks that texts fit in maxContextTokens.
func (tc *TokenCounter) ValidateTokens(maxContextTokens int, texts ...string) error {
	if maxContextTokens <= 0 {
		return fmt.Errorf("invalid max_context_tokens: must be greater than 0")
	}

	total := tc.Count(texts...)
	if total > maxContextTokens {
		return fmt.Errorf("total tokens (%d) exceeds max context length (%d)", total, maxContextTokens)
	}
	return nil
}
