package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	Pause        key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	PanUp        key.Binding
	PanDown      key.Binding
	ResetZoom    key.Binding
	ContrastUp   key.Binding
	ContrastDown key.Binding
	Denoise      key.Binding
	Palette      key.Binding
	Regime       key.Binding
	HistoryLess  key.Binding
	HistoryMore  key.Binding
	Export       key.Binding
	Help         key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Pause:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		ZoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:      key.NewBinding(key.WithKeys("-", "_")),
		PanUp:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "pan")),
		PanDown:      key.NewBinding(key.WithKeys("down", "j")),
		ResetZoom:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
		ContrastUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "contrast")),
		ContrastDown: key.NewBinding(key.WithKeys("[")),
		Denoise:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "denoise")),
		Palette:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "palette")),
		Regime:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "regime")),
		HistoryLess:  key.NewBinding(key.WithKeys("<", ","), key.WithHelp("</>", "history")),
		HistoryMore:  key.NewBinding(key.WithKeys(">", ".")),
		Export:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export png")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.ZoomIn, k.PanUp, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.ZoomIn, k.PanUp, k.ResetZoom},
		{k.ContrastUp, k.Denoise, k.Palette, k.Regime},
		{k.HistoryLess, k.Export, k.Help, k.Quit},
	}
}
