// Package nav turns navigation instructions embedded in assistant
// messages into at-most-once routing commands for the host view layer.
package nav

import (
	"sync"

	"go.uber.org/zap"

	"careerpilot/internal/conversation"
)

// State is the transient payload carried to the target view.
type State struct {
	Filters map[string]any
	Message string
}

// Command is a single routing instruction for the host router to consume
// exactly once per dispatch.
type Command struct {
	Route string
	State State
}

// Dispatcher tracks which assistant messages already fired. The
// dispatched set is scoped to the dispatcher's lifetime (one UI session),
// not persisted with conversation history: reloading a conversation in
// the same session does not re-fire, a fresh session may.
type Dispatcher struct {
	mu         sync.Mutex
	dispatched map[string]struct{}
	log        *zap.Logger
}

// NewDispatcher creates a dispatcher with an empty dispatched set.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{dispatched: make(map[string]struct{}), log: log}
}

// Observe inspects the message log after any reconciliation has applied
// and returns the command to fire, if any. The newest assistant message
// is found by log position, not timestamp: the optimistic/authoritative
// swap can reorder timestamps. Returns false for user messages, assistant
// messages without a navigate action, unknown action kinds, and ids that
// already fired.
func (d *Dispatcher) Observe(log []conversation.Message) (Command, bool) {
	var last *conversation.Message
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Role == conversation.RoleAssistant {
			last = &log[i]
			break
		}
	}
	if last == nil || last.Navigation == nil || last.Navigation.Kind != conversation.KindNavigate {
		return Command{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, seen := d.dispatched[last.ID]; seen {
		return Command{}, false
	}
	d.dispatched[last.ID] = struct{}{}

	d.log.Info("navigation dispatched",
		zap.String("message_id", last.ID),
		zap.String("route", last.Navigation.Route))
	return Command{
		Route: last.Navigation.Route,
		State: State{
			Filters: last.Navigation.Filters,
			Message: last.Navigation.Message,
		},
	}, true
}
