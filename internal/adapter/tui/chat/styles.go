package chat

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "25", Dark: "39"}
	colorFaint  = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	colorError  = lipgloss.AdaptiveColor{Light: "160", Dark: "203"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			PaddingTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorFaint)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
)
