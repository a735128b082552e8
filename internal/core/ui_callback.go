package core

import "github.com/habitat-build/habitat/internal/types"

// UICallback abstracts user-facing output and prompts so the engine can run
// identically under the interactive TUI, a plain non-interactive logger, or
// a test double.
type UICallback interface {
	ShowError(title, message string)
	ShowSuccess(message string)
	ShowWarning(title, message string)
	AskConfirmation(title, message string) bool
	StyleTitle(title string) string
	GetOutputMode() OutputMode
	IsAutoApprove() bool
	FormatJSON(output JSONOutput) error

	// StartProgress begins tracking a multi-step operation (e.g. fetching
	// a solution's nodes) and returns a tracker to report progress against.
	StartProgress(total int, label string) types.ProgressTracker
}

// noOpProgressTracker discards all progress events.
type noOpProgressTracker struct{}

func (noOpProgressTracker) Increment(string)    {}
func (noOpProgressTracker) SetTotal(int)        {}
func (noOpProgressTracker) Complete()           {}
func (noOpProgressTracker) Fail(error)          {}

// SilentUICallback discards all output. Used in tests and library callers
// that only care about the returned error.
type SilentUICallback struct{}

func (SilentUICallback) ShowError(string, string)           {}
func (SilentUICallback) ShowSuccess(string)                 {}
func (SilentUICallback) ShowWarning(string, string)          {}
func (SilentUICallback) AskConfirmation(string, string) bool { return true }
func (SilentUICallback) StyleTitle(title string) string      { return title }
func (SilentUICallback) GetOutputMode() OutputMode           { return OutputQuiet }
func (SilentUICallback) IsAutoApprove() bool                 { return true }
func (SilentUICallback) FormatJSON(JSONOutput) error          { return nil }
func (SilentUICallback) StartProgress(_ int, _ string) types.ProgressTracker {
	return noOpProgressTracker{}
}
