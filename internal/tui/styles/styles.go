// Package styles holds the dashboard's lipgloss palette and the style
// helpers that map worker states and log lines to colors.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA")
	CyanColor      = lipgloss.Color("#22D3EE")
	MagentaColor   = lipgloss.Color("#E879F9")
	OrangeColor    = lipgloss.Color("#FB923C")

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(CyanColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	StatsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 2)

	StatLabel = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatValue = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	GroupItem = lipgloss.NewStyle().
			PaddingLeft(2)

	GroupKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(SecondaryColor)

	AccountPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)
)

// StateColor returns the color for a worker state label.
func StateColor(label string) lipgloss.Color {
	switch {
	case label == "Running":
		return SecondaryColor
	case label == "Processing":
		return BlueColor
	case label == "Queued":
		return WarningColor
	case label == "Sleeping":
		return MagentaColor
	case strings.HasPrefix(label, "Retry"):
		return OrangeColor
	default:
		return MutedColor
	}
}

// StateStyle returns a bold style in the state's color.
func StateStyle(label string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(StateColor(label))
}

// LogColor picks a color for a worker log line from its content.
func LogColor(line string) lipgloss.Color {
	switch {
	case strings.Contains(line, "Cycle completed"):
		return SecondaryColor
	case strings.Contains(line, "Error"):
		return ErrorColor
	case strings.Contains(line, "Retry"):
		return WarningColor
	case strings.Contains(line, "Sleeping"):
		return MagentaColor
	case strings.Contains(line, "Launching"):
		return CyanColor
	default:
		return TextColor
	}
}

// LogLine colors a log line, dimming its "[HH:MM:SS]" prefix.
func LogLine(line string) string {
	body := line
	prefix := ""
	if strings.HasPrefix(line, "[") {
		if i := strings.Index(line, "] "); i > 0 {
			prefix, body = line[:i+1], line[i+2:]
		}
	}
	colored := lipgloss.NewStyle().Foreground(LogColor(body)).Render(body)
	if prefix == "" {
		return colored
	}
	return Muted.Render(prefix) + " " + colored
}
