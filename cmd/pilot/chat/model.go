// Package chat provides the interactive TUI for the careerpilot
// assistant: the chat view, the session list, and the progressive
// recommendations view.
package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"careerpilot/cmd/pilot/ui"
	"careerpilot/internal/config"
	"careerpilot/internal/conversation"
	"careerpilot/internal/gateway"
	"careerpilot/internal/nav"
	"careerpilot/internal/recommend"
)

// ViewMode determines which component is focused/active.
type ViewMode int

const (
	ChatView ViewMode = iota
	SessionListView
	RecommendView
)

// sessionItem is a list item for the session picker.
type sessionItem struct {
	id, date, desc string
}

func (i sessionItem) Title() string       { return i.date }
func (i sessionItem) Description() string { return "[" + i.id + "] " + i.desc }
func (i sessionItem) FilterValue() string { return i.id + " " + i.desc }

// Model is the main model for the interactive interface.
type Model struct {
	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	list     list.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	viewMode ViewMode

	// Engines
	gw          gateway.Gateway
	store       *conversation.Store
	dispatcher  *nav.Dispatcher
	engine      *recommend.Engine
	toolResults map[string]json.RawMessage

	// Recommendations view state
	recSnapshot recommend.Snapshot
	jobTitles   map[string]string
	recCursor   int
	banner      string

	cfg *config.UserConfig
	log *zap.Logger

	errText string
	width   int
	height  int
	ready   bool

	// Root context for all in-flight gateway calls; canceled on quit so
	// late completions are discarded with the program.
	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// New creates the chat model over an initialized gateway.
func New(cfg *config.UserConfig, gw gateway.Gateway, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about jobs, matches, or your resume…"
	ta.Focus()
	ta.CharLimit = 2000
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	sessionList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sessionList.Title = "Conversations"
	sessionList.SetShowHelp(false)

	styles := ui.NewStyles(ui.ThemeNamed(cfg.Theme))
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		textarea:    ta,
		spinner:     sp,
		list:        sessionList,
		styles:      styles,
		renderer:    renderer,
		gw:          gw,
		store:       conversation.NewStore(gw, conversation.WithLogger(log)),
		dispatcher:  nav.NewDispatcher(log),
		engine:      recommend.NewEngine(gw, recommend.WithLogger(log), recommend.WithConcurrency(cfg.ScoringConcurrency)),
		toolResults: make(map[string]json.RawMessage),
		jobTitles:   make(map[string]string),
		cfg:         cfg,
		log:         log,
		rootCtx:     ctx,
		rootCancel:  cancel,
	}
}

// Init starts the cursor blink and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Shutdown cancels every outstanding gateway call.
func (m Model) Shutdown() {
	m.engine.Cancel()
	m.rootCancel()
}

// RunInteractiveChat launches the TUI and blocks until exit.
func RunInteractiveChat(cfg *config.UserConfig, gw gateway.Gateway, log *zap.Logger) error {
	p := tea.NewProgram(New(cfg, gw, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}
