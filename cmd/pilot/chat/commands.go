package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"careerpilot/internal/conversation"
)

// sendCmd performs the gateway call for an optimistic send. The pending
// handle rides along so reconciliation targets the right placeholder.
func (m Model) sendCmd(p conversation.Pending) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		res, err := m.gw.SendMessage(ctx, p.ConversationID, p.Text)
		return sendResultMsg{pending: p, res: res, err: err}
	}
}

// loadSessionsCmd fetches the conversation list for the picker.
func (m Model) loadSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		convs, err := m.gw.ListConversations(ctx)
		if err != nil {
			return sessionsLoadedMsg{err: err}
		}
		items := make([]list.Item, 0, len(convs))
		for _, c := range convs {
			items = append(items, sessionItem{
				id:   c.ID,
				date: c.CreatedAt.Format("2006-01-02 15:04"),
				desc: c.Title,
			})
		}
		return sessionsLoadedMsg{items: items}
	}
}

// openSessionCmd loads one conversation's full transcript.
func (m Model) openSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		conv, err := m.gw.LoadConversation(ctx, id)
		return sessionOpenedMsg{conv: conv, err: err}
	}
}

// deleteSessionCmd removes a conversation on the backend.
func (m Model) deleteSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		err := m.gw.DeleteConversation(ctx, id)
		return sessionDeletedMsg{id: id, err: err}
	}
}

// waitForSnapshot blocks on the engine's update channel and re-arms
// itself from Update until the batch settles.
func (m Model) waitForSnapshot() tea.Cmd {
	updates := m.engine.Updates()
	return func() tea.Msg {
		return recSnapshotMsg(<-updates)
	}
}

// loadTitlesCmd fetches job summaries so result rows can show titles
// instead of bare ids.
func (m Model) loadTitlesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		summaries, err := m.gw.ListCandidateJobs(ctx)
		if err != nil {
			return jobTitlesMsg(nil)
		}
		titles := make(map[string]string, len(summaries))
		for _, s := range summaries {
			titles[s.ID] = fmt.Sprintf("%s · %s", s.Title, s.Company)
		}
		return jobTitlesMsg(titles)
	}
}

// hideCmd removes a job optimistically and reports the backend result.
func (m Model) hideCmd(jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.rootCtx, m.cfg.Timeout())
		defer cancel()
		err := m.engine.Hide(ctx, jobID)
		return hideDoneMsg{jobID: jobID, err: err}
	}
}
