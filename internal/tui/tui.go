package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatlog/internal/search"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

// Options configure a TUI session.
type Options struct {
	Query   string
	Limit   int
	Project string
}

// message types

type searchResultMsg struct {
	query   string
	results []search.Result
}

type debounceTickMsg struct {
	query string
}

// generationReadyMsg is delivered by the service subscription after a
// rebuild swapped in a new generation.
type generationReadyMsg struct {
	stats service.RebuildStats
}

type rebuildFailedMsg struct {
	err error
}

// model

type model struct {
	svc         *service.Service
	opts        Options
	mode        tuiMode
	query       string
	results     []search.Result
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // "id:query" to avoid duplicate renders
	status      string
	statusErr   bool
	rebuilding  bool
	width       int
	height      int
	ready       bool
	quitting    bool
	openResult  *search.Result
}

func newModel(svc *service.Service, mode tuiMode, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	if mode == modeList {
		ti.Placeholder = "Filter..."
	}
	ti.Focus()
	ti.SetValue(opts.Query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		svc:         svc,
		opts:        opts,
		mode:        mode,
		query:       opts.Query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the TUI in search mode and blocks until it exits. If the user
// selects a result, its resume command is copied to the clipboard.
func Run(svc *service.Service, opts Options) error {
	return run(svc, newModel(svc, modeSearch, opts))
}

// RunList starts the TUI in list mode, showing the most recent sessions
// until a filter is typed.
func RunList(svc *service.Service, opts Options) error {
	return run(svc, newModel(svc, modeList, opts))
}

func run(svc *service.Service, m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	svc.Subscribe(func(stats service.RebuildStats) {
		p.Send(generationReadyMsg{stats: stats})
	})

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.openResult != nil {
		return copyResumeCommand(svc.GetConversation(fm.openResult.ID))
	}
	return nil
}

// Init triggers the initial search/list load.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList || m.query != "" {
		cmds = append(cmds, m.doSearch(m.query))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		l := m.layout()
		m.preview = newViewport(l.previewW, l.panelH)
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if len(m.results) > 0 && m.cursor < len(m.results) {
				r := m.results[m.cursor]
				m.openResult = &r
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Rebuild):
			if m.rebuilding {
				return m, nil
			}
			m.rebuilding = true
			m.status = "rebuilding..."
			m.statusErr = false
			return m, m.doRebuild()

		case key.Matches(msg, keys.Up):
			cmd := m.setCursor(m.cursor - 1)
			return m, cmd

		case key.Matches(msg, keys.Down):
			cmd := m.setCursor(m.cursor + 1)
			return m, cmd

		case key.Matches(msg, keys.PreviewUp):
			m.scrollPreview(-m.layout().panelH / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.scrollPreview(m.layout().panelH / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.scrollPreview(-m.layout().panelH)
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.scrollPreview(m.layout().panelH)
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		newQuery := m.filterInput.Value()
		if newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, m.scheduleDebouncedSearch(newQuery))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		// stale ticks are dropped
		if msg.query == m.query {
			cmds = append(cmds, m.doSearch(msg.query))
		}
		return m, tea.Batch(cmds...)

	case generationReadyMsg:
		m.rebuilding = false
		m.status = fmt.Sprintf("index rebuilt: %d conversations", msg.stats.Index.Documents)
		m.statusErr = false
		m.previewKey = ""
		return m, m.doSearch(m.query)

	case rebuildFailedMsg:
		m.rebuilding = false
		m.status = "rebuild failed: " + msg.err.Error()
		m.statusErr = true
		return m, nil

	case searchResultMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.results = msg.results
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if len(m.results) > 0 {
			cmds = append(cmds, m.loadCurrentPreview())
		} else {
			m.preview.SetContent("")
		}
		return m, tea.Batch(cmds...)

	case previewRenderedMsg:
		key := previewCacheKey(msg.id, msg.query)
		if key == m.previewKey {
			return m, nil
		}
		if len(m.results) > 0 && m.cursor < len(m.results) {
			if key != previewCacheKey(m.results[m.cursor].ID, m.query) {
				return m, nil // stale preview
			}
		}
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			m.preview.SetYOffset(msg.hitLine)
		} else {
			m.preview.GotoTop()
		}
		m.previewKey = key
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	l := m.layout()
	m.preview.Width = l.previewW
	m.preview.Height = l.panelH
	panels := l.render(m.renderList(l.listW, l.panelH), m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

func (m model) statusBar() string {
	parts := []string{fmt.Sprintf("%d results", len(m.results))}
	switch {
	case m.status == "":
	case m.statusErr:
		parts = append(parts, styleStatusError.Render(m.status))
	case m.rebuilding:
		parts = append(parts, styleStatusBusy.Render(m.status))
	default:
		parts = append(parts, m.status)
	}
	parts = append(parts, "click/up/dn navigate", "scroll/C-u/C-d preview")
	parts = append(parts, helpText(keys.shortHelp())...)
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// doSearch runs blank queries only in list mode; in search mode an empty
// box clears the results.
func (m model) doSearch(query string) tea.Cmd {
	svc := m.svc
	opts := m.opts
	mode := m.mode
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" && mode != modeList {
			return searchResultMsg{query: query}
		}
		return searchResultMsg{query: query, results: svc.Search(query, opts.Limit, opts.Project)}
	}
}

// doRebuild reports failures only; success arrives as generationReadyMsg
// through the service subscription.
func (m model) doRebuild() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.Rebuild()
		if err != nil && !errors.Is(err, service.ErrRebuildInProgress) {
			return rebuildFailedMsg{err: err}
		}
		return nil
	}
}

func (m model) scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if len(m.results) == 0 || m.cursor >= len(m.results) {
		return nil
	}
	r := m.results[m.cursor]
	if previewCacheKey(r.ID, m.query) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.svc, r, m.query, m.layout().previewW)
}

func previewCacheKey(id, query string) string {
	return id + ":" + query
}
