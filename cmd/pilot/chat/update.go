package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"careerpilot/internal/nav"
	"careerpilot/internal/recommend"
)

// Update is the main message handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sendResultMsg:
		return m.handleSendResult(msg)

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.errText = "could not list conversations: " + msg.err.Error()
			m.viewMode = ChatView
			return m, nil
		}
		return m, m.list.SetItems(msg.items)

	case sessionOpenedMsg:
		if msg.err != nil {
			m.errText = "could not open conversation: " + msg.err.Error()
			m.viewMode = ChatView
			return m, nil
		}
		if err := m.store.Load(msg.conv); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.viewMode = ChatView
		m.errText = ""
		m.refreshViewport()
		return m, nil

	case sessionDeletedMsg:
		if msg.err != nil {
			m.errText = "could not delete conversation: " + msg.err.Error()
			return m, nil
		}
		if msg.id == m.store.ConversationID() {
			_ = m.store.Reset()
			m.refreshViewport()
		}
		return m, m.loadSessionsCmd()

	case recSnapshotMsg:
		m.recSnapshot = recommend.Snapshot(msg)
		if m.recCursor >= len(m.recSnapshot.Results) {
			m.recCursor = max(0, len(m.recSnapshot.Results)-1)
		}
		// Keep listening while the view is active; the channel also
		// carries hide updates after the batch settles.
		if m.viewMode == RecommendView {
			return m, m.waitForSnapshot()
		}
		return m, nil

	case jobTitlesMsg:
		for id, title := range msg {
			m.jobTitles[id] = title
		}
		return m, nil

	case hideDoneMsg:
		if msg.err != nil {
			m.errText = "could not hide " + msg.jobID + ": " + msg.err.Error()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	footerHeight := m.textarea.Height() + 3
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(msg.Width - 2)
	m.list.SetSize(msg.Width, msg.Height-2)

	wrap := msg.Width - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap > 0 {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap)); err == nil {
			m.renderer = r
		}
	}
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case SessionListView:
		return m.handleSessionKey(msg)
	case RecommendView:
		return m.handleRecommendKey(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		m.Shutdown()
		return m, tea.Quit
	case tea.KeyEnter:
		return m.handleSubmit()
	case tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return m, nil
	case tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Shutdown()
		return m, tea.Quit
	case "esc":
		m.viewMode = ChatView
		return m, nil
	case "enter":
		if item, ok := m.list.SelectedItem().(sessionItem); ok {
			return m, m.openSessionCmd(item.id)
		}
		return m, nil
	case "d":
		if item, ok := m.list.SelectedItem().(sessionItem); ok {
			return m, m.deleteSessionCmd(item.id)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleRecommendKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Shutdown()
		return m, tea.Quit
	case "esc", "q":
		// Leaving the view tears the batch down; late completions are
		// discarded rather than written into a view nobody is watching.
		switch m.engine.Snapshot().State {
		case recommend.Listing, recommend.Scoring:
			m.engine.Cancel()
		}
		m.viewMode = ChatView
		m.banner = ""
		m.refreshViewport()
		return m, nil
	case "up", "k":
		if m.recCursor > 0 {
			m.recCursor--
		}
		return m, nil
	case "down", "j":
		if m.recCursor < len(m.recSnapshot.Results)-1 {
			m.recCursor++
		}
		return m, nil
	case "x", "delete":
		if m.recCursor < len(m.recSnapshot.Results) {
			jobID := m.recSnapshot.Results[m.recCursor].JobID
			return m, m.hideCmd(jobID)
		}
		return m, nil
	case "r":
		return m.startRecommendations("")
	}
	return m, nil
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.handleSlashCommand(input)
	}

	if m.store.Pending() {
		return m, nil
	}
	p, err := m.store.Begin(input)
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}
	m.textarea.Reset()
	m.errText = ""
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.spinner.Tick, m.sendCmd(p))
}

// handleSlashCommand runs local commands that never reach the gateway.
func (m Model) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "/quit", "/exit":
		m.Shutdown()
		return m, tea.Quit
	case "/new":
		if err := m.store.Reset(); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.errText = ""
		m.refreshViewport()
		return m, nil
	case "/sessions":
		m.viewMode = SessionListView
		return m, m.loadSessionsCmd()
	case "/recommend":
		return m.startRecommendations("")
	default:
		m.errText = "unknown command " + input + " (try /new, /sessions, /recommend, /quit)"
		return m, nil
	}
}

func (m Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	if err := m.store.Complete(msg.pending, msg.res, msg.err); err != nil {
		m.log.Warn("send reconciliation", zap.Error(err))
	}
	if msg.err != nil || msg.res == nil {
		m.errText = m.store.Err()
		// Put the draft back so a failed send costs nothing to retry.
		m.textarea.SetValue(msg.pending.Text)
		m.refreshViewport()
		return m, nil
	}

	for id, payload := range msg.res.ToolResults {
		m.toolResults[id] = payload
	}
	m.errText = ""
	m.refreshViewport()
	m.viewport.GotoBottom()

	if cmd, fired := m.dispatcher.Observe(m.store.Messages()); fired {
		return m.navigate(cmd)
	}
	return m, nil
}

// navigate applies a navigation command emitted by the assistant.
func (m Model) navigate(cmd nav.Command) (tea.Model, tea.Cmd) {
	m.banner = cmd.State.Message
	switch {
	case strings.HasPrefix(cmd.Route, "/jobs"), strings.HasPrefix(cmd.Route, "/recommend"):
		return m.startRecommendations(cmd.State.Message)
	default:
		// No dedicated view for this route; surface the message in chat.
		m.refreshViewport()
		return m, nil
	}
}

// startRecommendations switches to the recommendations view and kicks
// off a scoring batch unless one is already running.
func (m Model) startRecommendations(banner string) (tea.Model, tea.Cmd) {
	m.viewMode = RecommendView
	m.banner = banner
	m.recCursor = 0
	err := m.engine.Start(m.rootCtx)
	if err != nil && err != recommend.ErrBatchActive {
		m.errText = "could not start recommendations: " + err.Error()
		m.viewMode = ChatView
		return m, nil
	}
	m.recSnapshot = m.engine.Snapshot()
	return m, tea.Batch(m.spinner.Tick, m.waitForSnapshot(), m.loadTitlesCmd())
}

// updateFocused routes unhandled messages to the focused component.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch m.viewMode {
	case SessionListView:
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case ChatView:
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
