package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// renderList renders the left panel: search results list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResultLine(r, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > w {
		return runewidth.Truncate(s, w, "")
	}
	return s
}

// formatResultLine formats a single search result as two lines:
//
//	line 1: [>] source  MM-DD  project  session name
//	line 2:    preview (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	var src string
	switch r.Source {
	case parse.SourceClaude:
		src = styleSourceClaude.Render("claude")
	case parse.SourceCodex:
		src = styleSourceCodex.Render("codex ")
	default:
		src = r.Source
	}

	date := r.Timestamp
	if len(date) >= 10 {
		date = date[5:10] // MM-DD
	}

	// prefix "  src MM-DD "
	restMax := width - 2 - 7 - 6 - 2
	project := truncate(r.ProjectName, restMax)
	title := ""
	if r.SessionName != "" {
		title = truncate(flatten(r.SessionName), restMax-runewidth.StringWidth(project)-1)
	}

	line1 := fmt.Sprintf("%s %s %s", src, date, styleTitle.Render(project))
	if title != "" {
		line1 += " " + title
	}
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	preview := truncate(flatten(r.Preview), width-4)
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(preview)

	return []string{line1, line2}
}
