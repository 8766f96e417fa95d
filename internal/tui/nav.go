package tui

import tea "github.com/charmbracelet/bubbletea"

// setCursor moves the selection to i, keeps it on screen and loads its
// preview. Out of range indexes are ignored.
func (m *model) setCursor(i int) tea.Cmd {
	if i < 0 || i >= len(m.results) || i == m.cursor {
		return nil
	}
	m.cursor = i
	visible := m.layout().visibleItems()
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
	return m.loadCurrentPreview()
}

// scrollList shifts the list window without moving the selection.
func (m *model) scrollList(delta int) {
	maxOffset := max(0, len(m.results)-m.layout().visibleItems())
	m.listOffset = min(maxOffset, max(0, m.listOffset+delta))
}

func (m *model) scrollPreview(lines int) {
	if lines < 0 {
		m.preview.LineUp(-lines)
	} else {
		m.preview.LineDown(lines)
	}
}

func (m model) handleMouse(msg tea.MouseMsg) (model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown
	region, row := m.layout().hitTest(msg.X, msg.Y)

	switch region {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.scrollList(-1)
		case msg.Button == tea.MouseButtonWheelDown:
			m.scrollList(1)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			cmd := m.setCursor(m.listOffset + row)
			return m, cmd
		}
	case regionPreview:
		if wheel {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}
