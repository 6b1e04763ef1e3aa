package kiosk

import "github.com/charmbracelet/lipgloss"

// Rumble palette.
var (
	Red       = lipgloss.Color("#DC2626")
	DarkRed   = lipgloss.Color("#991B1B")
	Gold      = lipgloss.Color("#EAB308")
	Green     = lipgloss.Color("#22C55E")
	White     = lipgloss.Color("#FFFFFF")
	Gray      = lipgloss.Color("#6B7280")
	DarkGray  = lipgloss.Color("#1F2937")
	LightGray = lipgloss.Color("#9CA3AF")
)

// Styles holds every style the kiosk renders with.
type Styles struct {
	Brand      lipgloss.Style
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Muted      lipgloss.Style
	Focused    lipgloss.Style
	Button     lipgloss.Style
	ButtonOff  lipgloss.Style
	Card       lipgloss.Style
	CardActive lipgloss.Style
	Price      lipgloss.Style
	Perk       lipgloss.Style
	Progress   lipgloss.Style
	Code       lipgloss.Style
	Reward     lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Spinner    lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles returns the kiosk theme.
func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DarkGray).
		Padding(1, 2).
		Width(34)

	return Styles{
		Brand:      lipgloss.NewStyle().Foreground(Red).Bold(true).Italic(true),
		Title:      lipgloss.NewStyle().Foreground(White).Bold(true),
		Subtitle:   lipgloss.NewStyle().Foreground(LightGray),
		Label:      lipgloss.NewStyle().Foreground(Gray).Bold(true),
		Value:      lipgloss.NewStyle().Foreground(White),
		Muted:      lipgloss.NewStyle().Foreground(Gray),
		Focused:    lipgloss.NewStyle().Foreground(Red).Bold(true),
		Button:     lipgloss.NewStyle().Foreground(White).Background(Red).Bold(true).Padding(0, 3),
		ButtonOff:  lipgloss.NewStyle().Foreground(Gray).Background(DarkGray).Padding(0, 3),
		Card:       card,
		CardActive: card.BorderForeground(Red),
		Price:      lipgloss.NewStyle().Foreground(White).Bold(true),
		Perk:       lipgloss.NewStyle().Foreground(Gold),
		Progress:   lipgloss.NewStyle().Foreground(Red).Bold(true),
		Code:       lipgloss.NewStyle().Foreground(White).Background(DarkRed).Bold(true).Padding(0, 2),
		Reward:     lipgloss.NewStyle().Foreground(White).Background(Red).Bold(true).Italic(true).Padding(0, 2),
		Error:      lipgloss.NewStyle().Foreground(Red),
		Success:    lipgloss.NewStyle().Foreground(Green).Bold(true),
		Spinner:    lipgloss.NewStyle().Foreground(Red),
		Help:       lipgloss.NewStyle().Foreground(Gray).Italic(true),
	}
}
