package practice

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Left  key.Binding
	Right key.Binding
	Pick  key.Binding
	Undo  key.Binding
	Reset key.Binding
	Next  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Pick: key.NewBinding(
			key.WithKeys("enter", "space"),
			key.WithHelp("enter", "place chunk"),
		),
		Undo: key.NewBinding(
			key.WithKeys("backspace", "u"),
			key.WithHelp("⌫/u", "undo"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Next: key.NewBinding(
			key.WithKeys("enter", "n"),
			key.WithHelp("enter", "next"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// answering switches the bindings between placing chunks and reading
// feedback, so help only lists what currently works.
func (k *keyMap) answering(on bool) {
	k.Left.SetEnabled(on)
	k.Right.SetEnabled(on)
	k.Pick.SetEnabled(on)
	k.Undo.SetEnabled(on)
	k.Reset.SetEnabled(on)
	k.Next.SetEnabled(!on)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Pick, k.Undo, k.Reset, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
