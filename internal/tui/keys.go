package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Close      key.Binding
	Logout     key.Binding
	NextView   key.Binding
	PrevView   key.Binding
	Jump       key.Binding
	Drawer     key.Binding
	DarkMode   key.Binding
	PrevPeriod key.Binding
	NextPeriod key.Binding
	Method     key.Binding
	Edit       key.Binding
	Submit     key.Binding
	Back       key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Reveal     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "sair da aplicação"),
	),
	Close: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "fechar"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "terminar sessão"),
	),
	NextView: key.NewBinding(
		key.WithKeys("tab", "down", "j"),
		key.WithHelp("↓/tab", "próximo"),
	),
	PrevView: key.NewBinding(
		key.WithKeys("shift+tab", "up", "k"),
		key.WithHelp("↑/shift+tab", "anterior"),
	),
	Jump: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
		key.WithHelp("1-0", "ir para"),
	),
	Drawer: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "menu"),
	),
	DarkMode: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tema"),
	),
	PrevPeriod: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "período"),
	),
	NextPeriod: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "período"),
	),
	Method: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "método"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "editar"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirmar"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "voltar"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "próximo campo"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "campo anterior"),
	),
	Reveal: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "mostrar senha"),
	),
}

// ShortHelp is the status-line help for the shell.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextView, k.Jump, k.Drawer, k.DarkMode, k.Logout, k.Close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextView, k.PrevView, k.Jump, k.Drawer},
		{k.PrevPeriod, k.NextPeriod, k.Method, k.Edit},
		{k.DarkMode, k.Logout, k.Close, k.Quit},
	}
}
