package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/conversation"
)

// memoryLog keeps the server-side conversation history for a gateway
// session. Conversation persistence across sessions belongs to the
// excluded collaborators; this in-memory form is enough for the engines
// and the TUI session list.
type memoryLog struct {
	mu     sync.Mutex
	convs  map[string]*conversation.Conversation
	nextID func() string
	now    func() time.Time
}

func newMemoryLog() *memoryLog {
	return &memoryLog{
		convs:  make(map[string]*conversation.Conversation),
		nextID: uuid.NewString,
		now:    time.Now,
	}
}

// appendTurn stores an exchanged turn, creating the conversation when
// conversationID is empty, and returns the owning conversation id.
func (m *memoryLog) appendTurn(conversationID string, user, assistant conversation.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[conversationID]
	if conversationID == "" {
		conv = &conversation.Conversation{
			ID:        "conv-" + m.nextID(),
			Title:     title(user.Content),
			CreatedAt: m.now(),
		}
		m.convs[conv.ID] = conv
	} else if !ok {
		return "", fmt.Errorf("conversation %s not found", conversationID)
	}

	user.ConversationID = conv.ID
	assistant.ConversationID = conv.ID
	conv.Messages = append(conv.Messages, user, assistant)
	return conv.ID, nil
}

func (m *memoryLog) list(context.Context) ([]conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]conversation.Conversation, 0, len(m.convs))
	for _, c := range m.convs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memoryLog) load(_ context.Context, id string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	copied := *conv
	copied.Messages = append([]conversation.Message(nil), conv.Messages...)
	return &copied, nil
}

func (m *memoryLog) delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[id]; !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	delete(m.convs, id)
	return nil
}

// title derives a short conversation title from the opening message,
// truncating on a rune boundary.
func title(text string) string {
	const max = 48
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
