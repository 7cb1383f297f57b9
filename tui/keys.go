package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play      key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	NoteUp    key.Binding
	NoteDown  key.Binding
	Mute      key.Binding
	Follow    key.Binding

	SlotPrev   key.Binding
	SlotNext   key.Binding
	TransUp    key.Binding
	TransDown  key.Binding
	DurUp      key.Binding
	DurDown    key.Binding
	SlotRemove key.Binding
	SetPrev    key.Binding
	SetNext    key.Binding
	Save       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKey(help string, ks ...string) key.Binding {
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(ks[0], help))
}

var keys = keyMap{
	Play:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/stop")),
	TempoUp:   newKey("tempo +5", "+", "="),
	TempoDown: newKey("tempo -5", "-", "_"),
	Left:      newKey("step left", "left", "h"),
	Right:     newKey("step right", "right", "l"),
	Up:        newKey("prev track", "up", "k"),
	Down:      newKey("next track", "down", "j"),
	Toggle:    newKey("toggle note", "enter"),
	NoteUp:    newKey("entry note +1", "]"),
	NoteDown:  newKey("entry note -1", "["),
	Mute:      newKey("mute track", "m"),
	Follow:    newKey("chord follow", "c"),

	SlotPrev:   newKey("prev transpose slot", ","),
	SlotNext:   newKey("next transpose slot", "."),
	TransUp:    newKey("transpose +1", "t"),
	TransDown:  newKey("transpose -1", "T"),
	DurUp:      newKey("duration +", "d"),
	DurDown:    newKey("duration -", "D"),
	SlotRemove: newKey("remove slot", "x"),
	SetPrev:    newKey("prev set", "<"),
	SetNext:    newKey("next set", ">"),
	Save:       newKey("save set", "s"),
	Help:       newKey("more keys", "?"),
	Quit:       newKey("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Toggle, k.Left, k.Up, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.TempoUp, k.TempoDown, k.Quit},
		{k.Left, k.Right, k.Up, k.Down},
		{k.Toggle, k.NoteUp, k.NoteDown, k.Mute, k.Follow},
		{k.SlotPrev, k.SlotNext, k.TransUp, k.TransDown, k.DurUp, k.DurDown, k.SlotRemove},
		{k.SetPrev, k.SetNext, k.Save, k.Help},
	}
}
