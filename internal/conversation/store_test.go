package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender is a scriptable gateway for store tests.
type fakeSender struct {
	mu      sync.Mutex
	calls   int
	respond func(conversationID, text string) (*SendResult, error)
	// block, when non-nil, is closed by the test to release an in-flight send.
	block chan struct{}
}

func (f *fakeSender) SendMessage(_ context.Context, conversationID, text string) (*SendResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.respond(conversationID, text)
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// echoSender answers every send with an authoritative user copy and an
// assistant reply, assigning conversation id "conv-1" when none exists.
func echoSender() *fakeSender {
	turn := 0
	return &fakeSender{
		respond: func(conversationID, text string) (*SendResult, error) {
			turn++
			convID := conversationID
			if convID == "" {
				convID = "conv-1"
			}
			return &SendResult{
				ConversationID: convID,
				UserMessage: Message{
					ID:             fmt.Sprintf("msg-u%d", turn),
					ConversationID: convID,
					Role:           RoleUser,
					Content:        text,
					CreatedAt:      time.Unix(int64(1700000000+turn), 0),
				},
				AssistantMessage: Message{
					ID:             fmt.Sprintf("msg-a%d", turn),
					ConversationID: convID,
					Role:           RoleAssistant,
					Content:        "reply to: " + text,
					CreatedAt:      time.Unix(int64(1700000001+turn), 0),
				},
			}, nil
		},
	}
}

func TestSend_ReconcilesOptimisticTurn(t *testing.T) {
	t.Parallel()
	s := NewStore(echoSender())

	require.NoError(t, s.Send(context.Background(), "hello"))
	require.NoError(t, s.Send(context.Background(), "again"))

	log := s.Messages()
	require.Len(t, log, 4, "two turns = two user + two assistant messages")
	for _, m := range log {
		assert.NotContains(t, m.ID, "tmp-", "no temporary id survives reconciliation")
	}
	assert.Equal(t, []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant},
		[]Role{log[0].Role, log[1].Role, log[2].Role, log[3].Role})
	assert.Equal(t, "conv-1", s.ConversationID())
	assert.False(t, s.Pending())
	assert.Empty(t, s.Err())
}

func TestSend_RollbackOnFailure(t *testing.T) {
	t.Parallel()
	s := NewStore(echoSender())
	require.NoError(t, s.Send(context.Background(), "first"))
	before := s.Messages()

	failing := &fakeSender{respond: func(string, string) (*SendResult, error) {
		return nil, errors.New("backend unavailable")
	}}
	s.sender = failing

	err := s.Send(context.Background(), "doomed")
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend unavailable")

	assert.Equal(t, before, s.Messages(), "log restored exactly, no residual optimistic entry")
	assert.Equal(t, "backend unavailable", s.Err())
	assert.False(t, s.Pending())

	// Store stays usable for the next operation.
	s.sender = echoSender()
	require.NoError(t, s.Send(context.Background(), "recovered"))
	assert.Empty(t, s.Err())
}

func TestSend_EmptyTextRejectedSynchronously(t *testing.T) {
	t.Parallel()
	f := echoSender()
	s := NewStore(f)

	err := s.Send(context.Background(), "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, f.callCount(), "no network call for rejected input")
	assert.Empty(t, s.Messages())
}

func TestSend_SingleFlight(t *testing.T) {
	t.Parallel()
	f := echoSender()
	f.block = make(chan struct{})
	s := NewStore(f)

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "slow one") }()

	// Wait until the first send holds the latch.
	require.Eventually(t, s.Pending, time.Second, time.Millisecond)

	err := s.Send(context.Background(), "too eager")
	require.ErrorIs(t, err, ErrSendInFlight)

	close(f.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.callCount(), "never two concurrent requests for one conversation")
	assert.Len(t, s.Messages(), 2)
}

func TestBegin_OptimisticTurnVisibleBeforeCompletion(t *testing.T) {
	t.Parallel()
	s := NewStore(echoSender(), WithIDGenerator(func() string { return "fixed" }))

	p, err := s.Begin("  find jobs  ")
	require.NoError(t, err)
	assert.Equal(t, "tmp-fixed", p.TempID)
	assert.Equal(t, "find jobs", p.Text, "input trimmed before appending")

	log := s.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, RoleUser, log[0].Role)
	assert.Equal(t, "find jobs", log[0].Content)
	assert.True(t, s.Pending())
}

func TestComplete_WithoutBeginFails(t *testing.T) {
	t.Parallel()
	s := NewStore(echoSender())
	err := s.Complete(Pending{TempID: "tmp-x"}, nil, nil)
	require.Error(t, err)
}

func TestLoadAndReset_RejectedWhilePending(t *testing.T) {
	t.Parallel()
	f := echoSender()
	f.block = make(chan struct{})
	s := NewStore(f)

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "busy") }()
	require.Eventually(t, s.Pending, time.Second, time.Millisecond)

	require.ErrorIs(t, s.Load(&Conversation{ID: "conv-9"}), ErrSendInFlight)
	require.ErrorIs(t, s.Reset(), ErrSendInFlight)

	close(f.block)
	require.NoError(t, <-done)

	require.NoError(t, s.Load(&Conversation{ID: "conv-9", Messages: []Message{
		{ID: "h1", Role: RoleUser, Content: "old"},
	}}))
	assert.Equal(t, "conv-9", s.ConversationID())
	assert.Len(t, s.Messages(), 1)

	require.NoError(t, s.Reset())
	assert.Empty(t, s.ConversationID())
	assert.Empty(t, s.Messages())
}

// Scenario from the product: a brand-new conversation adopts the server
// id and the assistant turn arrives carrying a search_jobs tool call.
func TestScenario_NewConversationWithToolCall(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{respond: func(conversationID, text string) (*SendResult, error) {
		return &SendResult{
			ConversationID: "conv-new",
			UserMessage: Message{
				ID: "msg-u1", ConversationID: "conv-new", Role: RoleUser, Content: text,
			},
			AssistantMessage: Message{
				ID: "msg-a1", ConversationID: "conv-new", Role: RoleAssistant,
				Content: "Here are some roles that fit.",
				ToolCalls: []ToolCall{{
					ID:            "call-1",
					FunctionName:  "search_jobs",
					ArgumentsJSON: `{"query":"software engineer","location":"SF"}`,
				}},
			},
		}, nil
	}}
	s := NewStore(sender)

	p, err := s.Begin("Find me software engineer jobs in SF")
	require.NoError(t, err)
	require.Len(t, s.Messages(), 1, "optimistic user message appears immediately")

	res, sendErr := sender.SendMessage(context.Background(), p.ConversationID, p.Text)
	require.NoError(t, s.Complete(p, res, sendErr))

	assert.Equal(t, "conv-new", s.ConversationID())
	log := s.Messages()
	require.Len(t, log, 2)
	require.Len(t, log[1].ToolCalls, 1)
	assert.Equal(t, "search_jobs", log[1].ToolCalls[0].FunctionName)
}

func TestSend_ConcurrentCallersNeverOverlap(t *testing.T) {
	t.Parallel()
	f := echoSender()
	s := NewStore(f)

	var wg sync.WaitGroup
	var rejected, succeeded int
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.Send(context.Background(), fmt.Sprintf("msg %d", n))
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrSendInFlight) {
				rejected++
			} else if err == nil {
				succeeded++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, rejected+succeeded)
	assert.Len(t, s.Messages(), succeeded*2, "each accepted turn contributes exactly two messages")
}
