package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatlog/internal/render"
	"github.com/Zuo-Peng/chatlog/internal/search"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	id      string
	query   string
	content string
	hitLine int
}

// loadPreviewCmd renders the conversation behind r asynchronously.
func loadPreviewCmd(svc *service.Service, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content := "(conversation no longer available, press C-r to rebuild)"
		hitLine := -1
		if conv := svc.GetConversation(r.ID); conv != nil {
			content, hitLine = render.RenderConversation(conv, render.Options{
				Context: -1,
				Width:   width,
				Query:   query,
			})
		}
		return previewRenderedMsg{
			id:      r.ID,
			query:   query,
			content: content,
			hitLine: hitLine,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
