package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/thenoetrevino/kansync/internal/config"
)

// KeyMap is the board's key bindings, built from configured key mappings
type KeyMap struct {
	AddCard    key.Binding
	DeleteCard key.Binding
	MoveLeft   key.Binding
	MoveRight  key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	ViewCard   key.Binding
	PrevColumn key.Binding
	NextColumn key.Binding
	PrevCard   key.Binding
	NextCard   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func binding(k, help string, extra ...string) key.Binding {
	display := k
	if k == " " {
		display = "space"
	}
	return key.NewBinding(key.WithKeys(append([]string{k}, extra...)...), key.WithHelp(display, help))
}

// NewKeyMap converts configured mappings into bindings
func NewKeyMap(km config.KeyMappings) KeyMap {
	return KeyMap{
		AddCard:    binding(km.AddCard, "add card"),
		DeleteCard: binding(km.DeleteCard, "delete card"),
		MoveLeft:   binding(km.MoveCardLeft, "move left"),
		MoveRight:  binding(km.MoveCardRight, "move right"),
		MoveUp:     binding(km.MoveCardUp, "move up"),
		MoveDown:   binding(km.MoveCardDown, "move down"),
		ViewCard:   binding(km.ViewCard, "details"),
		PrevColumn: binding(km.PrevColumn, "prev column", "left"),
		NextColumn: binding(km.NextColumn, "next column", "right"),
		PrevCard:   binding(km.PrevCard, "prev card", "up"),
		NextCard:   binding(km.NextCard, "next card", "down"),
		Help:       binding(km.ShowHelp, "help"),
		Quit:       binding(km.Quit, "quit", "ctrl+c"),
	}
}

// ShortHelp lists the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddCard, k.DeleteCard, k.ViewCard, k.Help, k.Quit}
}

// FullHelp lists every binding, grouped
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.AddCard, k.DeleteCard, k.ViewCard},
		{k.MoveLeft, k.MoveRight, k.MoveUp, k.MoveDown},
		{k.PrevColumn, k.NextColumn, k.PrevCard, k.NextCard},
		{k.Help, k.Quit},
	}
}
