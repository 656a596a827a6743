package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/uigen/internal/command"
)

// keyMap holds the toolbar and dialog bindings. Bindings that do not apply
// to the current mode are disabled so help hides them.
type keyMap struct {
	NewDesign key.Binding
	ClearAll  key.Binding
	Download  key.Binding
	SignOut   key.Binding
	Projects  key.Binding
	Palette   key.Binding
	SignIn    key.Binding
	SignUp    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding

	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Switch  key.Binding
	AltMode key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NewDesign: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new design")),
		ClearAll:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),
		Download:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download zip")),
		SignOut:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sign out")),
		Projects:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "projects")),
		Palette:   key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "commands")),
		SignIn:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "sign in")),
		SignUp:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "sign up")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),

		Up:      key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Switch:  key.NewBinding(key.WithKeys("tab", "shift+tab", "left", "right"), key.WithHelp("tab", "switch")),
		AltMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "sign in/up")),
	}
}

// setAuthenticated enables the toolbar bindings of one mode.
func (k *keyMap) setAuthenticated(authed bool) {
	for _, b := range []*key.Binding{&k.NewDesign, &k.ClearAll, &k.Download, &k.SignOut, &k.Projects, &k.Palette} {
		b.SetEnabled(authed)
	}
	k.SignIn.SetEnabled(!authed)
	k.SignUp.SetEnabled(!authed)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewDesign, k.ClearAll, k.Download, k.Projects, k.Palette, k.SignOut, k.SignIn, k.SignUp, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewDesign, k.ClearAll, k.Download, k.SignOut},
		{k.Projects, k.Palette, k.SignIn, k.SignUp},
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Switch, k.AltMode, k.Help, k.Quit},
	}
}

// keyEvent translates a terminal key press into the dispatcher's event.
// Terminals do not report a meta/command modifier, so ctrl is the primary
// modifier here.
func keyEvent(msg tea.KeyMsg) *command.KeyEvent {
	s := msg.String()
	e := &command.KeyEvent{Alt: msg.Alt}
	s = strings.TrimPrefix(s, "alt+")
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
		e.Ctrl = true
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "shift+"); ok {
		e.Shift = true
		s = rest
	}
	e.Key = s
	return e
}
