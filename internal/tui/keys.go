package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PreviewUp key.Binding
	PreviewDn key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Rebuild   key.Binding
	Enter     key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "ctrl+k"), key.WithHelp("up/C-k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "ctrl+j"), key.WithHelp("dn/C-j", "down")),
	PreviewUp: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "preview up")),
	PreviewDn: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "preview down")),
	PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "preview page up")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "preview page down")),
	Rebuild:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "rebuild")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "copy resume cmd")),
	Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("Esc", "quit")),
}

// shortHelp lists the bindings shown in the status bar.
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Rebuild, k.Enter, k.Quit}
}

func helpText(bindings []key.Binding) []string {
	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, strings.TrimSpace(h.Key+" "+h.Desc))
	}
	return out
}
