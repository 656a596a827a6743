package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Toolbar title - bright cyan background, bold black text
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	buttonKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Background(lipgloss.Color("238")).
			Bold(true)

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("45")).
				Foreground(lipgloss.Color("0"))

	dangerButtonStyle = buttonStyle.
				Background(lipgloss.Color("196")).
				Bold(true)

	pickerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("231")).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("45"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("51")).
				Bold(true).
				PaddingLeft(1).
				SetString("›")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Dialog container - rounded border with dim gray
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2).
			MarginTop(1)

	dangerDialogStyle = dialogStyle.
				BorderForeground(lipgloss.Color("196"))
)
