package tui

import "github.com/charmbracelet/lipgloss"

// Color constants of the dark theme.
const (
	ColorBg     = "#0d1117"
	ColorCard   = "#161b22"
	ColorBorder = "#30363d"
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorRed    = "#f85149"
	ColorYellow = "#d29922"
	ColorGray   = "#8b949e"
	ColorText   = "#c9d1d9"
	ColorBright = "#f0f6fc"
)

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	Header     lipgloss.Style
	Crumb      lipgloss.Style
	ActiveCrumb lipgloss.Style
	Canvas     lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Palette    lipgloss.Style
	PaletteKey lipgloss.Style
	Badge      lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles creates the default style set.
func DefaultStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorCard)).
			Foreground(lipgloss.Color(ColorText)),

		Crumb: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),

		ActiveCrumb: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue)).
			Bold(true),

		Canvas: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),

		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGreen)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorRed)).
			Bold(true),

		Palette: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),

		PaletteKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorYellow)).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorBlue)).
			Foreground(lipgloss.Color(ColorBg)).
			Padding(0, 1).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)).
			Italic(true),
	}
}
