package mocks

import (
	"context"
	"sync"

	"github.com/teilomillet/codeshift/conversation"
)

// Completer is a scripted conversation.Completer that records its calls.
// It is safe for concurrent use.
type Completer struct {
	// CompleteFunc answers every call when set; otherwise Reply and Err are
	// returned.
	CompleteFunc func(ctx context.Context, model string, messages []conversation.Message) (string, error)
	Reply        string
	Err          error

	mu    sync.Mutex
	calls [][]conversation.Message
	keys  []string
}

// NewCompleter returns a Completer that always answers reply.
func NewCompleter(reply string) *Completer {
	return &Completer{Reply: reply}
}

func (c *Completer) Complete(ctx context.Context, model string, messages []conversation.Message) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, messages)
	c.mu.Unlock()

	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, model, messages)
	}
	return c.Reply, c.Err
}

// Backend returns a conversation.Backend that hands out c and records the
// credentials it was built with.
func (c *Completer) Backend() conversation.Backend {
	return func(apiKey string) (conversation.Completer, error) {
		c.mu.Lock()
		c.keys = append(c.keys, apiKey)
		c.mu.Unlock()
		return c, nil
	}
}

// Calls returns the transcripts received so far.
func (c *Completer) Calls() [][]conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]conversation.Message, len(c.calls))
	copy(out, c.calls)
	return out
}

// Keys returns the credentials passed to Backend.
func (c *Completer) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...)
}
