package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role Role
		text string
	}{
		{System("rules"), RoleSystem, "rules"},
		{User("question"), RoleUser, "question"},
		{Assistant("answer"), RoleAssistant, "answer"},
		{User(""), RoleUser, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.role, tt.msg.Role())
		assert.Equal(t, tt.text, tt.msg.Content())
	}
}
