package tui

import "github.com/charmbracelet/lipgloss"

// Brand colors shared by both themes.
const (
	colorViolet     lipgloss.Color = "#7c3aed"
	colorVioletSoft lipgloss.Color = "#a78bfa"
	colorGreen      lipgloss.Color = "#22c55e"
	colorRed        lipgloss.Color = "#ef4444"
	colorOrange     lipgloss.Color = "#f97316"
	colorAmber      lipgloss.Color = "#f59e0b"
	colorWhite      lipgloss.Color = "#ffffff"
)

type palette struct {
	Surface lipgloss.Color
	Border  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
}

var (
	lightPalette = palette{
		Surface: "#f5f3ff",
		Border:  "#ddd6fe",
		Text:    "#0f172a",
		Muted:   "#94a3b8",
		Accent:  colorViolet,
	}
	darkPalette = palette{
		Surface: "#1a1533",
		Border:  "#3b3163",
		Text:    "#f5f3ff",
		Muted:   "#8b7fb8",
		Accent:  colorVioletSoft,
	}
)

// Styles holds every lipgloss style the UI renders with.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Text       lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Badge      lipgloss.Style
	MenuGroup  lipgloss.Style
	MenuItem   lipgloss.Style
	MenuActive lipgloss.Style
	Sidebar    lipgloss.Style
	Card       lipgloss.Style
	Panel      lipgloss.Style
	Tab        lipgloss.Style
	TabActive  lipgloss.Style
	Button     lipgloss.Style
	Status     lipgloss.Style
	Dialog     lipgloss.Style
	Bar        lipgloss.Style
}

// NewStyles builds the light or dark theme.
func NewStyles(dark bool) Styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		Subtitle: lipgloss.NewStyle().Foreground(p.Muted),
		Text:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Muted),
		Accent:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		Warning:  lipgloss.NewStyle().Bold(true).Foreground(colorAmber),
		Badge: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorViolet).
			Padding(0, 1),
		MenuGroup: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Muted).
			MarginTop(1),
		MenuItem: lipgloss.NewStyle().Foreground(p.Text).PaddingLeft(1),
		MenuActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorViolet).
			PaddingLeft(1),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(p.Border).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().Padding(0, 2),
		Tab:   lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorViolet).
			Padding(0, 1),
		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorViolet).
			Padding(0, 2),
		Status: lipgloss.NewStyle().
			Foreground(p.Muted).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(p.Border),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(1, 3),
		Bar: lipgloss.NewStyle().Foreground(p.Accent),
	}
}
