// Package types defines the data structures shared across habitat's
// resolution, fetch, and filesystem-layout stages.
package types

// NodeType discriminates the four kinds of dependency node a DEPS file can
// declare.
type NodeType string

const (
	NodeGit      NodeType = "git"
	NodeHTTP     NodeType = "http"
	NodeAction   NodeType = "action"
	NodeSolution NodeType = "solution"
)

// ActionCommand is a single step of an action node. Exactly one of Shell or
// Argv is set: Shell runs through the platform shell, Argv execs directly.
type ActionCommand struct {
	Shell string   `yaml:"shell,omitempty"`
	Argv  []string `yaml:"argv,omitempty"`
}

// NodeConfig is the parsed form of one entry in a DEPS file. Fields not
// relevant to Type are left zero; LoadDepsFile validates the combination.
type NodeConfig struct {
	Name        string   `yaml:"name"`
	Type        NodeType `yaml:"type"`
	Condition   *bool    `yaml:"condition,omitempty"`
	Require     []string `yaml:"require,omitempty"`
	IgnoreInGit *bool    `yaml:"ignore_in_git,omitempty"`
	FetchMode   string   `yaml:"fetch_mode,omitempty"` // "", "full", "shallow"
	DisableLink *bool    `yaml:"disable_link,omitempty"`

	// git
	URL       string   `yaml:"url,omitempty"`
	Branch    string   `yaml:"branch,omitempty"`
	Commit    string   `yaml:"commit,omitempty"`
	Tag       string   `yaml:"tag,omitempty"`
	EnableLFS *bool    `yaml:"enable_lfs,omitempty"`
	Patches   []string `yaml:"patches,omitempty"`

	// http
	SHA256     string   `yaml:"sha256,omitempty"`
	Decompress *bool    `yaml:"decompress,omitempty"`
	Paths      []string `yaml:"paths,omitempty"`

	// action
	Commands []ActionCommand   `yaml:"commands,omitempty"`
	Cwd      string            `yaml:"cwd,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`

	// solution (nested dependency group)
	DepsFile        string            `yaml:"deps_file,omitempty"`
	TargetDepsFiles map[string]string `yaml:"target_deps_files,omitempty"`
	Targets         []string          `yaml:"targets,omitempty"`
	MappingFile     string            `yaml:"mapping_file,omitempty"`
}

// SolutionEntry is one top-level entry in a solution file: a named
// directory fetched from a git-like source, whose DEPS file is then
// evaluated recursively.
type SolutionEntry struct {
	Name            string            `yaml:"name"`
	URL             string            `yaml:"url"`
	Branch          string            `yaml:"branch,omitempty"`
	Commit          string            `yaml:"commit,omitempty"`
	Tag             string            `yaml:"tag,omitempty"`
	DepsFile        string            `yaml:"deps_file,omitempty"`
	Targets         []string          `yaml:"targets,omitempty"`
	TargetDepsFiles map[string]string `yaml:"target_deps_files,omitempty"`
	MappingFile     string            `yaml:"mapping_file,omitempty"`
}

// MappingTable is the parsed form of a `.habitat` mapping file: for each
// node type, for each attribute, an old-value -> new-value rewrite applied
// to every instantiated node of that type after DEPS evaluation.
type MappingTable map[NodeType]map[string]map[string]string

// SolutionFile is the parsed form of a solution file (default name
// `.habitat`): an ordered list of top-level solutions plus optional
// version pinning and attribute rewrites.
type SolutionFile struct {
	HabitatVersion string          `yaml:"habitat_version,omitempty"`
	Solutions      []SolutionEntry `yaml:"solutions"`
	Mappings       MappingTable    `yaml:"mappings,omitempty"`
}

// SourceKey identifies a fetchable source independent of where it lands in
// the tree. Two nodes with equal SourceKeys fetch once and share the result
// via symlink/copy at every target path.
type SourceKey struct {
	Type NodeType
	// Stamp is the node's source stamp: "url@commit:<c>,branch:<b>,tag:<t>"
	// for git (only the pinned refs appear), "url@<sha256>" for http.
	Stamp string
}

// PathMapping maps one path inside a fetched source to a destination path
// relative to the solution root.
type PathMapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PathConflict records two nodes whose mappings wrote to the same
// destination path. The first writer (encounter order) wins; the second is
// skipped and reported here.
type PathConflict struct {
	Path    string
	Winner  string
	Skipped string
}

// CloneOptions configures a git clone/fetch carried out on a node's behalf.
type CloneOptions struct {
	Filter     string // e.g. "blob:none"
	NoCheckout bool
	Depth      int
}

// CacheEntry is one fetched-and-resolved node as recorded in the entries
// cache. Stamp is the content identity used to detect whether a previously
// fetched node can be reused without re-running its fetcher.
type CacheEntry struct {
	Name      string   `json:"name"`
	Type      NodeType `json:"type"`
	Stamp     string   `json:"stamp"`
	Paths     []string `json:"paths"`
	FetchedAt string   `json:"fetched_at"`
}

// EntriesCache is the full persisted state for a solution run: every node
// resolved so far, plus an md5 hash over the entries' names and stamps.
// Stored as a JSON blob reachable only via a git tag (see
// internal/core/entries_cache.go).
type EntriesCache struct {
	Entries []CacheEntry `json:"entries"`
	Hash    string       `json:"hash"`
}

// ProgressTracker reports the progress of a long-running fetch or layout
// operation to a UI (TUI, plain log, or a test double).
type ProgressTracker interface {
	// Increment advances progress by one unit with an optional status message.
	Increment(message string)

	// SetTotal updates the total expected units (for dynamically sized work).
	SetTotal(total int)

	// Complete marks the operation as successfully finished.
	Complete()

	// Fail marks the operation as failed with an error.
	Fail(err error)
}
