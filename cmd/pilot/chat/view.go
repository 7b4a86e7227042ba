package chat

import (
	"fmt"
	"sort"
	"strings"

	"careerpilot/internal/conversation"
	"careerpilot/internal/recommend"
	"careerpilot/internal/toolcards"
)

// View renders the focused view mode.
func (m Model) View() string {
	if !m.ready {
		return "starting careerpilot…"
	}
	switch m.viewMode {
	case SessionListView:
		return m.list.View()
	case RecommendView:
		return m.recommendView()
	}
	return m.chatView()
}

func (m Model) chatView() string {
	var b strings.Builder

	title := "careerpilot"
	if id := m.store.ConversationID(); id != "" {
		title += "  " + m.styles.Muted.Render(id)
	}
	b.WriteString(m.styles.Header.Width(m.width).Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.errText != "" {
		b.WriteString(m.styles.Error.Render("✗ " + m.errText))
		b.WriteString("\n")
	}
	if m.store.Pending() {
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" thinking…"))
		b.WriteString("\n")
	}
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("enter send · /new /sessions /recommend /quit · pgup/pgdn scroll"))
	return b.String()
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
}

func (m Model) renderHistory() string {
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		welcome := "# Welcome to careerpilot\n\nAsk me to find jobs, rate your fit, or draft a resume.\n"
		return m.safeRenderMarkdown(welcome)
	}

	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case conversation.RoleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.UserInput.Render(msg.Content))
		case conversation.RoleAssistant:
			b.WriteString(m.styles.AssistantLabel.Render("careerpilot"))
			b.WriteString("\n")
			if msg.Content != "" {
				b.WriteString(m.safeRenderMarkdown(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				card := toolcards.Route(call, m.toolResults[call.ID])
				b.WriteString("\n")
				b.WriteString(m.styles.RenderCard(card))
				b.WriteString("\n")
			}
			if msg.Navigation != nil && msg.Navigation.Message != "" {
				b.WriteString("\n")
				b.WriteString(m.styles.Banner.Render("→ " + msg.Navigation.Message))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	if m.banner != "" {
		b.WriteString(m.styles.Banner.Render(m.banner))
		b.WriteString("\n")
	}
	return b.String()
}

// safeRenderMarkdown renders markdown, falling back to plain text when
// the renderer chokes on the input.
func (m Model) safeRenderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func (m Model) recommendView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Width(m.width).Render("Recommended jobs"))
	b.WriteString("\n")
	if m.banner != "" {
		b.WriteString(m.styles.Banner.Render(m.banner))
		b.WriteString("\n")
	}

	snap := m.recSnapshot
	switch snap.State {
	case recommend.Listing:
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" fetching candidates…"))
		b.WriteString("\n")
	case recommend.Scoring:
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("scoring… %d pending", len(snap.PendingIDs))))
		b.WriteString("\n")
	case recommend.Settled:
		if snap.ListErr != nil {
			b.WriteString(m.styles.Error.Render("✗ could not list jobs: " + snap.ListErr.Error()))
			b.WriteString("\n")
		}
	}

	for i, match := range snap.Results {
		cursor := "  "
		if i == m.recCursor {
			cursor = m.styles.Bold.Render("> ")
		}
		title := m.jobTitles[match.JobID]
		if title == "" {
			title = match.JobID
		}
		b.WriteString(cursor + m.styles.RenderMatchRow(match, title))
		b.WriteString("\n")
	}

	if len(snap.PendingIDs) > 0 {
		ids := make([]string, 0, len(snap.PendingIDs))
		for id := range snap.PendingIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			title := m.jobTitles[id]
			if title == "" {
				title = id
			}
			b.WriteString("  " + m.spinner.View() + " " + m.styles.Muted.Render(title))
			b.WriteString("\n")
		}
	}

	if snap.State == recommend.Settled && len(snap.Results) == 0 && snap.ListErr == nil {
		b.WriteString(m.styles.Muted.Render("no open jobs to score"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("↑/↓ select · x hide · r rescore · esc back"))
	return b.String()
}
