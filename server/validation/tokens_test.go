package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounterWith(wordTokenizer{})

	assert.Equal(t, 0, tc.Count())
	assert.Equal(t, 5, tc.Count("procedure Hello is", "begin end"))

	assert.NoError(t, tc.ValidateTokens(5, "a b c d e"))
	assert.ErrorContains(t, tc.ValidateTokens(4, "a b c d e"), "exceeds max context length")
	assert.ErrorContains(t, tc.ValidateTokens(0, "a"), "invalid max_context_tokens")
}
