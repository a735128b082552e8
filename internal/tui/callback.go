// Package tui provides terminal user interface components and callbacks for habitat.
package tui

import (
	"os"

	"github.com/habitat-build/habitat/internal/core"
	"github.com/habitat-build/habitat/internal/types"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// TUICallback implements UICallback for interactive terminal use with styled output.
//
//nolint:revive // Name TUICallback is intentional and descriptive
type TUICallback struct{}

// NewTUICallback creates a new interactive terminal UI callback.
func NewTUICallback() *TUICallback {
	return &TUICallback{}
}

// ShowError prints a styled error message.
func (t *TUICallback) ShowError(title, message string) {
	PrintError(title, message)
}

// ShowSuccess displays a success message with styled output.
func (t *TUICallback) ShowSuccess(message string) {
	PrintSuccess(message)
}

// ShowWarning displays a warning message with styled output.
func (t *TUICallback) ShowWarning(title, message string) {
	PrintWarning(title, message)
}

// AskConfirmation prompts the user for yes/no confirmation.
func (t *TUICallback) AskConfirmation(title, message string) bool {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Description(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()
	if err != nil {
		return false
	}
	return confirm
}

// StyleTitle returns a styled title string for terminal output.
func (t *TUICallback) StyleTitle(title string) string {
	return StyleTitle(title)
}

// GetOutputMode returns the output mode (normal for interactive TUI)
func (t *TUICallback) GetOutputMode() core.OutputMode {
	return core.OutputNormal
}

// IsAutoApprove returns whether auto-approve is enabled (always false for interactive mode)
func (t *TUICallback) IsAutoApprove() bool {
	return false
}

// FormatJSON is not used in interactive mode
func (t *TUICallback) FormatJSON(_ core.JSONOutput) error {
	return nil
}

// StartProgress begins tracking a multi-step operation. It renders with the
// bubbletea spinner when stdout is a terminal, falling back to line-by-line
// text output otherwise (e.g. when output is piped or redirected).
func (t *TUICallback) StartProgress(total int, label string) types.ProgressTracker {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return NewBubbletaeProgressTracker(total, label)
	}
	return NewTextProgressTracker(total, label)
}
