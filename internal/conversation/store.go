package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender is the slice of the gateway the store depends on.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, text string) (*SendResult, error)
}

// Contract violations rejected synchronously, before any network call.
var (
	ErrEmptyMessage = errors.New("conversation: message text is empty")
	ErrSendInFlight = errors.New("conversation: a send is already in flight")
)

// Store serializes user intent into optimistic state and reconciles it
// against the authoritative server response. One Store owns the message
// log for the conversation currently open in a view; sends are
// single-flight per store.
type Store struct {
	mu       sync.Mutex
	sender   Sender
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
	convID   string
	messages []Message
	inFlight bool
	lastErr  string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator overrides temporary-id minting for tests.
func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

// NewStore creates an empty store for a not-yet-created conversation.
func NewStore(sender Sender, opts ...Option) *Store {
	s := &Store{
		sender: sender,
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pending reports a send currently in flight from Begin through Complete.
// A send started with Begin stays pending until Complete is called.
type Pending struct {
	TempID         string
	ConversationID string
	Text           string
}

// Begin validates the input, latches the single-flight guard and appends
// the optimistic user turn in one synchronous step. The caller must
// follow up with exactly one Complete carrying the gateway outcome.
func (s *Store) Begin(text string) (Pending, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Pending{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return Pending{}, ErrSendInFlight
	}
	s.inFlight = true
	s.lastErr = ""

	tempID := "tmp-" + s.newID()
	s.messages = append(s.messages, Message{
		ID:             tempID,
		ConversationID: s.convID,
		Role:           RoleUser,
		Content:        trimmed,
		CreatedAt:      s.now().Truncate(time.Second),
	})
	s.log.Debug("optimistic user turn appended",
		zap.String("temp_id", tempID),
		zap.String("conversation_id", s.convID))

	return Pending{TempID: tempID, ConversationID: s.convID, Text: trimmed}, nil
}

// Complete reconciles a pending send. On success the temporary user turn
// is removed and the authoritative user + assistant pair appended as one
// transition; a newly assigned conversation id is adopted store-wide. On
// failure the temporary turn is removed and the failure surfaced via
// Err(). Complete never leaves the log with both the temporary message
// and its authoritative counterpart.
func (s *Store) Complete(p Pending, res *SendResult, sendErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return fmt.Errorf("conversation: complete called with no send in flight")
	}
	s.inFlight = false
	s.removeLocked(p.TempID)

	if sendErr != nil {
		s.lastErr = sendErr.Error()
		s.log.Warn("send failed, optimistic turn rolled back",
			zap.String("temp_id", p.TempID), zap.Error(sendErr))
		return fmt.Errorf("send message: %w", sendErr)
	}
	if res == nil {
		s.lastErr = "empty response from gateway"
		return errors.New("conversation: gateway returned nil result")
	}

	if s.convID == "" && res.ConversationID != "" {
		s.convID = res.ConversationID
		s.log.Info("conversation id adopted", zap.String("conversation_id", s.convID))
	}
	s.messages = append(s.messages, res.UserMessage, res.AssistantMessage)
	return nil
}

// Send is the blocking form of Begin + gateway call + Complete, for
// callers outside an event loop.
func (s *Store) Send(ctx context.Context, text string) error {
	p, err := s.Begin(text)
	if err != nil {
		return err
	}
	res, err := s.sender.SendMessage(ctx, p.ConversationID, p.Text)
	return s.Complete(p, res, err)
}

// Load replaces the log with a conversation fetched from history.
// Rejected while a send is in flight.
func (s *Store) Load(conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSendInFlight
	}
	s.convID = conv.ID
	s.messages = append([]Message(nil), conv.Messages...)
	s.lastErr = ""
	return nil
}

// Reset clears the store for a brand-new conversation.
// Rejected while a send is in flight.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSendInFlight
	}
	s.convID = ""
	s.messages = nil
	s.lastErr = ""
	return nil
}

// Messages returns a copy of the current log, always consistent: either
// the optimistic turn or its authoritative replacement, never both.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// ConversationID returns the adopted id, or "" before the first
// successful send.
func (s *Store) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convID
}

// Pending reports whether a send is in flight. Views should disable
// input while true.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Err returns the human-readable reason of the last failed send, cleared
// by the next Begin.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) removeLocked(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}
