package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the keyboard bindings of the grid
type keyMap struct {
	Quit        key.Binding
	PrevDay     key.Binding
	NextDay     key.Binding
	Now         key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	NextProgram key.Binding
	PrevProgram key.Binding
	Detail      key.Binding
	Reserve     key.Binding
	Back        key.Binding
	Help        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "Quit")),
		PrevDay:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "Previous day")),
		NextDay:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "Next day")),
		Now:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Jump to now")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "Scroll up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "Scroll down")),
		Left:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "Previous channel")),
		Right:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "Next channel")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "Page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", " "), key.WithHelp("pgdn", "Page down")),
		NextProgram: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "Select next program")),
		PrevProgram: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "Select previous program")),
		Detail:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Program detail")),
		Reserve:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Toggle reservation")),
		Back:        key.NewBinding(key.WithKeys("esc", "-"), key.WithHelp("esc", "Back / clear selection")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "Help")),
	}
}

// bindingsForView returns the help bindings for the given view state.
func (k keyMap) bindingsForView(vs ViewState) []key.Binding {
	switch vs {
	case DetailView:
		return []key.Binding{k.Reserve, k.Back, k.Help, k.Quit}
	default:
		return []key.Binding{
			k.PrevDay, k.NextDay, k.Now,
			k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown,
			k.NextProgram, k.PrevProgram, k.Detail, k.Reserve, k.Back,
			k.Help, k.Quit,
		}
	}
}

// shortHelp is the binding list shown in the status bar. Narrow terminals
// cut it from the right.
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help, k.PrevDay, k.NextDay, k.Now, k.NextProgram, k.Detail, k.Reserve}
}
