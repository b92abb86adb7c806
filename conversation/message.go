// Package conversation implements a stateful chat client on top of an
// opaque completion service. A Client owns one transcript: a fixed system
// message followed by (user, assistant) pairs that are only ever appended
// together, after the service has answered.
package conversation

// Role identifies the author of a message in the transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a transcript. The set of implementations is
// closed: only SystemMessage, UserMessage and AssistantMessage satisfy it,
// so a message with an unknown role cannot be constructed.
type Message interface {
	Role() Role
	Content() string
	sealed()
}

// SystemMessage sets the assistant's behavior for the whole conversation.
type SystemMessage struct{ text string }

// UserMessage is text submitted by the caller.
type UserMessage struct{ text string }

// AssistantMessage is a reply produced by the completion service.
type AssistantMessage struct{ text string }

// System returns a system message carrying text.
func System(text string) Message { return SystemMessage{text: text} }

// User returns a user message carrying text.
func User(text string) Message { return UserMessage{text: text} }

// Assistant returns an assistant message carrying text.
func Assistant(text string) Message { return AssistantMessage{text: text} }

func (SystemMessage) Role() Role    { return RoleSystem }
func (UserMessage) Role() Role      { return RoleUser }
func (AssistantMessage) Role() Role { return RoleAssistant }

func (m SystemMessage) Content() string    { return m.text }
func (m UserMessage) Content() string      { return m.text }
func (m AssistantMessage) Content() string { return m.text }

func (SystemMessage) sealed()    {}
func (UserMessage) sealed()      {}
func (AssistantMessage) sealed() {}
