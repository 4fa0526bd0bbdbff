package theme

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "kanagawa"

// --- Kanagawa Dragon (dark) palette ---
const (
	kanagawaGreen     = "#98BB6C"
	kanagawaYellow    = "#FF9E3B"
	kanagawaRed       = "#FF5D62"
	kanagawaCyan      = "#7E9CD8"
	kanagawaBlue      = "#7FB4CA"
	kanagawaViolet    = "#957FB8"
	kanagawaLightText = "#DCD7BA"
	kanagawaMutedText = "#727169"
	kanagawaBorder    = "#363646"
)

// --- Terminal (ANSI-friendly) palette ---
const (
	terminalGreen     = "2"
	terminalYellow    = "3"
	terminalRed       = "1"
	terminalCyan      = "6"
	terminalBlue      = "4"
	terminalViolet    = "5"
	terminalLightText = "7"
	terminalMutedText = "8"
	terminalBorder    = "8"
)

// Colors holds the raw palette for a theme.
type Colors struct {
	Green     lipgloss.Color
	Yellow    lipgloss.Color
	Red       lipgloss.Color
	Cyan      lipgloss.Color
	Blue      lipgloss.Color
	Violet    lipgloss.Color
	LightText lipgloss.Color
	MutedText lipgloss.Color
	Border    lipgloss.Color
}

// Theme bundles the lipgloss styles used across scout's terminal output.
type Theme struct {
	Colors Colors

	// Headers and titles
	Header lipgloss.Style
	Title  lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Text styles
	Bold   lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style

	// Container styles
	Box lipgloss.Style
}

// DefaultTheme is the default theme instance.
var DefaultTheme = NewThemeWithName(getThemeName())

// NewTheme creates a theme using the default palette.
func NewTheme() *Theme {
	return NewThemeWithName(defaultThemeName)
}

// NewThemeWithName creates a theme from a named palette.
func NewThemeWithName(name string) *Theme {
	colors := resolveThemeColors(name)
	return &Theme{
		Colors:  colors,
		Header:  lipgloss.NewStyle().Bold(true).Foreground(colors.Blue),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colors.LightText),
		Success: lipgloss.NewStyle().Foreground(colors.Green),
		Error:   lipgloss.NewStyle().Foreground(colors.Red),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow),
		Info:    lipgloss.NewStyle().Foreground(colors.Cyan),
		Bold:    lipgloss.NewStyle().Bold(true),
		Normal:  lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(colors.MutedText),
		Accent:  lipgloss.NewStyle().Foreground(colors.Violet),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),
	}
}

// RenderStatus renders text with the style matching a status word.
func RenderStatus(status, text string) string {
	switch status {
	case "completed", "ready", "ok":
		return DefaultTheme.Success.Render(text)
	case "failed", "error":
		return DefaultTheme.Error.Render(text)
	case "pending", "processing":
		return DefaultTheme.Warning.Render(text)
	default:
		return DefaultTheme.Info.Render(text)
	}
}

func resolveThemeColors(name string) Colors {
	switch name {
	case "terminal":
		return Colors{
			Green:     lipgloss.Color(terminalGreen),
			Yellow:    lipgloss.Color(terminalYellow),
			Red:       lipgloss.Color(terminalRed),
			Cyan:      lipgloss.Color(terminalCyan),
			Blue:      lipgloss.Color(terminalBlue),
			Violet:    lipgloss.Color(terminalViolet),
			LightText: lipgloss.Color(terminalLightText),
			MutedText: lipgloss.Color(terminalMutedText),
			Border:    lipgloss.Color(terminalBorder),
		}
	default:
		return Colors{
			Green:     lipgloss.Color(kanagawaGreen),
			Yellow:    lipgloss.Color(kanagawaYellow),
			Red:       lipgloss.Color(kanagawaRed),
			Cyan:      lipgloss.Color(kanagawaCyan),
			Blue:      lipgloss.Color(kanagawaBlue),
			Violet:    lipgloss.Color(kanagawaViolet),
			LightText: lipgloss.Color(kanagawaLightText),
			MutedText: lipgloss.Color(kanagawaMutedText),
			Border:    lipgloss.Color(kanagawaBorder),
		}
	}
}

func getThemeName() string {
	if name := os.Getenv("SCOUT_THEME"); name != "" {
		return name
	}
	return defaultThemeName
}
