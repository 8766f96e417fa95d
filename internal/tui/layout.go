package tui

import "github.com/charmbracelet/lipgloss"

// Rows taken outside the panels: query box, status bar and the top and
// bottom border of each panel.
const (
	chromeRows   = 1 + 1 + 2
	borderCells  = 2
	listPercent  = 40
	minPanelCols = 20
	minPanelRows = 5
)

// layout is the panel geometry for one terminal size. Widths and the
// height are content sizes, borders excluded.
type layout struct {
	listW    int
	previewW int
	panelH   int
}

func newLayout(width, height int) layout {
	if width <= 0 || height <= 0 {
		return layout{listW: 40, previewW: 60, panelH: 20}
	}
	listW := max(minPanelCols, width*listPercent/100-2*borderCells)
	return layout{
		listW:    listW,
		previewW: max(minPanelCols, width-listW-2*borderCells),
		panelH:   max(minPanelRows, height-chromeRows-2),
	}
}

func (m model) layout() layout {
	return newLayout(m.width, m.height)
}

// visibleItems is how many results fit in the list panel.
func (l layout) visibleItems() int {
	return max(1, l.panelH/linesPerItem)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel and, for the list, the row
// offset of the item under the pointer.
func (l layout) hitTest(x, y int) (mouseRegion, int) {
	top := 2 // query box + top border
	if y < top || y >= top+l.panelH {
		return regionNone, -1
	}
	switch {
	case x >= 1 && x <= l.listW:
		return regionList, (y - top) / linesPerItem
	case x > l.listW+borderCells:
		return regionPreview, -1
	}
	return regionNone, -1
}

func (l layout) render(list, preview string) string {
	listPanel := stylePanelBorder.Width(l.listW).Height(l.panelH).Render(list)
	previewPanel := styleActiveBorder.Width(l.previewW).Height(l.panelH).Render(preview)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
}
