package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// PrintError displays an error message with styling to the terminal.
func PrintError(title, msg string) { fmt.Println(styleErr.Render("✖ " + title)); fmt.Println(msg) }

// PrintSuccess displays a success message with styling to the terminal.
func PrintSuccess(msg string) { fmt.Println(styleSuccess.Render("✔ " + msg)) }

// PrintInfo displays an informational message to the terminal.
func PrintInfo(msg string) { fmt.Println(styleDim.Render(msg)) }

// PrintWarning displays a warning message with styling to the terminal.
func PrintWarning(title, msg string) { fmt.Println(styleWarn.Render("! " + title)); fmt.Println(msg) }

// StyleTitle applies title styling to the given text string.
func StyleTitle(text string) string { return styleTitle.Render(text) }
