package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error format:
//
//	Error: <what went wrong>
//	  Context: <relevant details>
//	  Fix: <what the user should do>

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotInitialized indicates the solution root has no DEPS file.
	ErrNotInitialized = errors.New("no DEPS file found in the current directory")

	// ErrCacheUnavailable indicates the entries cache tag could not be read
	// or written and the caller must treat every node as unresolved.
	ErrCacheUnavailable = errors.New("entries cache is unavailable")
)

// =============================================================================
// Structured Error Types
// =============================================================================

// ConfigError is returned when a DEPS or solution file fails to parse or
// fails structural validation (missing required field, unknown node type,
// conflicting fields set for a node's type).
type ConfigError struct {
	File    string
	Node    string
	Message string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("Error: Invalid dependency configuration")
	if e.Node != "" {
		b.WriteString(fmt.Sprintf(" for node %q", e.Node))
	}
	b.WriteString(fmt.Sprintf("\n  Context: %s", e.Message))
	if e.File != "" {
		b.WriteString(fmt.Sprintf(" (in %s)", e.File))
	}
	b.WriteString("\n  Fix: Correct the DEPS file and retry")
	return b.String()
}

// NewConfigError creates a ConfigError.
func NewConfigError(file, node, message string) *ConfigError {
	return &ConfigError{File: file, Node: node, Message: message}
}

// FetchError is returned when a node's fetcher fails to retrieve its source.
type FetchError struct {
	Node  string
	Type  string
	Cause error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error: Failed to fetch %s node %q", e.Type, e.Node))
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  Context: %v", e.Cause))
	}
	b.WriteString("\n  Fix: Check network connectivity and source availability, then retry the sync")
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError creates a FetchError.
func NewFetchError(node, typ string, cause error) *FetchError {
	return &FetchError{Node: node, Type: typ, Cause: cause}
}

// IntegrityError is returned when a fetched artifact's checksum does not
// match the pinned value.
type IntegrityError struct {
	Node     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"Error: Checksum mismatch for node %q\n  Context: expected sha256 %s, got %s\n  Fix: Verify the pinned sha256 in the DEPS file, or the source has changed underneath it",
		e.Node, e.Expected, e.Actual,
	)
}

// NewIntegrityError creates an IntegrityError.
func NewIntegrityError(node, expected, actual string) *IntegrityError {
	return &IntegrityError{Node: node, Expected: expected, Actual: actual}
}

// CycleError is returned when the dependency graph contains a require cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf(
		"Error: Dependency cycle detected\n  Context: %s\n  Fix: Break the cycle by removing one of the require edges in the chain above",
		strings.Join(e.Path, " -> "),
	)
}

// NewCycleError creates a CycleError.
func NewCycleError(path []string) *CycleError {
	return &CycleError{Path: path}
}

// ConflictError is returned in strict mode when two sibling nodes share a
// source (Path) but pin it to different source stamps. Winner is the node
// registered first for that source; Skipped is the later one. Outside strict
// mode the group only warns and fetches the later node directly.
type ConflictError struct {
	Path    string
	Winner  string
	Skipped string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"Error: Source conflict at %q\n  Context: both %q and %q use this source with different pins; %q was registered first\n  Fix: Pin both nodes to the same ref",
		e.Path, e.Winner, e.Skipped, e.Winner,
	)
}

// NewConflictError creates a ConflictError.
func NewConflictError(path, winner, skipped string) *ConflictError {
	return &ConflictError{Path: path, Winner: winner, Skipped: skipped}
}

// VersionError is returned when a pinned git ref cannot be resolved against
// the remote (deleted branch/tag, stale commit after a force-push).
type VersionError struct {
	Node string
	Ref  string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf(
		"Error: Cannot resolve ref %q for node %q\n  Context: the remote no longer has this branch, tag, or commit\n  Fix: Update the DEPS file to a ref that still exists upstream",
		e.Ref, e.Node,
	)
}

// NewVersionError creates a VersionError.
func NewVersionError(node, ref string) *VersionError {
	return &VersionError{Node: node, Ref: ref}
}

// TimeoutError is returned when a node's wait on one of its require edges
// exceeds RuntimeContext.RequireTimeout.
type TimeoutError struct {
	Node string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf(
		"Error: Node %q timed out\n  Context: a node it requires did not complete within the require wait timeout\n  Fix: Increase HABITAT_MAX_DEPENDENCY_WAIT_TIME (seconds) or investigate why the required node is slow",
		e.Node,
	)
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(node string) *TimeoutError {
	return &TimeoutError{Node: node}
}

// =============================================================================
// Error Type Checking Helpers
// =============================================================================

func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

func IsFetchError(err error) bool {
	var e *FetchError
	return errors.As(err, &e)
}

func IsIntegrityError(err error) bool {
	var e *IntegrityError
	return errors.As(err, &e)
}

func IsCycleError(err error) bool {
	var e *CycleError
	return errors.As(err, &e)
}

func IsConflictError(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsVersionError(err error) bool {
	var e *VersionError
	return errors.As(err, &e)
}

func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}
