// Package conversation owns the message log for one open chat and the
// optimistic-send / reconcile / rollback protocol against the assistant
// backend.
package conversation

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a single function invocation reported by an assistant turn.
// Arguments stay raw: they may be arbitrary or unparseable JSON and are
// only interpreted at render time.
type ToolCall struct {
	ID            string `json:"id"`
	FunctionName  string `json:"function_name"`
	ArgumentsJSON string `json:"arguments_json"`
}

// NavigationAction is a routing instruction embedded in an assistant
// message. Only Kind "navigate" is recognized; other kinds are ignored.
type NavigationAction struct {
	Kind    string         `json:"kind"`
	Route   string         `json:"route"`
	Filters map[string]any `json:"filters,omitempty"`
	Message string         `json:"message,omitempty"`
}

// KindNavigate is the only NavigationAction kind the dispatcher acts on.
const KindNavigate = "navigate"

// Message is one turn in a conversation. Its ID is temporary
// (client-minted) until the server response replaces the optimistic copy
// with the authoritative one; after that the identity is stable.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Role           Role              `json:"role"`
	Content        string            `json:"content"`
	ToolCalls      []ToolCall        `json:"tool_calls,omitempty"`
	Navigation     *NavigationAction `json:"navigation,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Conversation is a named, ordered message log. The ID is assigned
// server-side on the first send; a fresh store holds the empty sentinel.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// SendResult is the gateway response to a send: the authoritative copy of
// the user turn plus the assistant reply, and the (possibly newly
// assigned) conversation id.
type SendResult struct {
	ConversationID   string  `json:"conversation_id"`
	UserMessage      Message `json:"user_message"`
	AssistantMessage Message `json:"assistant_message"`
	// ToolResults carries result payloads out of band, keyed by tool-call
	// id. A tool call without an entry here renders generically.
	ToolResults map[string]json.RawMessage `json:"tool_results,omitempty"`
}
