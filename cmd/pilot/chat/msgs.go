package chat

import (
	"github.com/charmbracelet/bubbles/list"

	"careerpilot/internal/conversation"
	"careerpilot/internal/recommend"
)

// Messages delivered back into Update by async commands.
type (
	// sendResultMsg carries the gateway response for an optimistic send.
	sendResultMsg struct {
		pending conversation.Pending
		res     *conversation.SendResult
		err     error
	}

	// sessionsLoadedMsg carries the fetched conversation list.
	sessionsLoadedMsg struct {
		items []list.Item
		err   error
	}

	// sessionOpenedMsg carries a fully loaded conversation.
	sessionOpenedMsg struct {
		conv *conversation.Conversation
		err  error
	}

	// sessionDeletedMsg reports a deletion so the list can be refreshed.
	sessionDeletedMsg struct {
		id  string
		err error
	}

	// recSnapshotMsg is one progress snapshot from the scoring engine.
	recSnapshotMsg recommend.Snapshot

	// jobTitlesMsg maps job ids to display titles for result rows.
	jobTitlesMsg map[string]string

	// hideDoneMsg reports the outcome of hiding a recommendation.
	hideDoneMsg struct {
		jobID string
		err   error
	}
)
