package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/habitat-build/habitat/internal/types"
)

// Component is one graph vertex: a config-validated node with a computed
// source-stamp, a bound Fetcher, and a lifecycle method that orchestrates
// the up-to-date check, the fetch itself, and event production to its
// parent group. Parent is lookup-only — never ownership — so the tree does
// not hold a reference cycle through its children.
type Component struct {
	Name      string
	Config    types.NodeConfig
	TargetDir string
	Parent    *DependencyGroup

	Fetcher Fetcher

	// OnFetched runs after a successful (non-skipped) fetch, before the
	// completion event fires. Solution nodes use it to load their nested
	// DEPS file once their own git fetch has materialized it.
	OnFetched func(ctx context.Context, c *Component) error

	FetchedPaths []string

	// localStamps is the Solution's local_source_stamps table, shared by
	// reference across every Component in the tree so UpToDate consults the
	// same entries-cache snapshot the Solution loaded at the start of the run.
	localStamps map[string]string
}

// NewComponent constructs a Component bound to the given parent and shared
// local-source-stamps table (pass nil for a root Solution's own component).
func NewComponent(name string, cfg types.NodeConfig, targetDir string, parent *DependencyGroup, localStamps map[string]string) *Component {
	return &Component{
		Name:        name,
		Config:      cfg,
		TargetDir:   targetDir,
		Parent:      parent,
		localStamps: localStamps,
	}
}

// Source returns the node's identity string: the git/http URL for
// fetchable node types, or its own name for action nodes (which have no
// shared source to deduplicate against).
func (c *Component) Source() string {
	switch c.Config.Type {
	case types.NodeGit, types.NodeSolution, types.NodeHTTP:
		return c.Config.URL
	default:
		return c.Name
	}
}

// SourceStamp returns the canonical string identifying this node's pinned
// content: source + "@" + its ref fields. Action nodes have the constant
// stamp "(action)" and are never considered up-to-date.
func (c *Component) SourceStamp() string {
	switch c.Config.Type {
	case types.NodeGit, types.NodeSolution:
		var refs []string
		if c.Config.Commit != "" {
			refs = append(refs, "commit:"+c.Config.Commit)
		}
		if c.Config.Branch != "" {
			refs = append(refs, "branch:"+c.Config.Branch)
		}
		if c.Config.Tag != "" {
			refs = append(refs, "tag:"+c.Config.Tag)
		}
		return c.Config.URL + "@" + strings.Join(refs, ",")
	case types.NodeHTTP:
		ref := c.Config.SHA256
		if ref == "" {
			ref = c.Config.URL
		}
		return c.Config.URL + "@" + ref
	case types.NodeAction:
		return "(action)"
	default:
		return c.Name
	}
}

// isFullSHA reports whether ref looks like a full 40-character hex commit SHA.
func isFullSHA(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range ref {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

// UpToDate reports whether this node can skip its fetcher entirely: the
// entries cache holds the same source-stamp, and (for git/solution nodes)
// the pinned commit is a full SHA — a branch or tag pin can move upstream
// and must always be checked.
func (c *Component) UpToDate() bool {
	if c.Config.Type == types.NodeAction {
		return false
	}
	stamp, ok := c.localStamps[c.Name]
	if !ok || stamp != c.SourceStamp() {
		return false
	}
	if c.Config.Type == types.NodeGit || c.Config.Type == types.NodeSolution {
		return isFullSHA(c.Config.Commit)
	}
	return true
}

// Fetch runs the node's lifecycle: skip if force is false and the node is
// up-to-date, otherwise invoke the bound fetcher and run OnFetched. In every
// exit path — success, skip, or failure — the node's completion event fires
// on its parent group so siblings waiting on a require edge are never left
// blocked by this node's outcome.
func (c *Component) Fetch(ctx context.Context, rootDir string, opts FetchOptions) error {
	defer func() {
		if c.Parent != nil {
			c.Parent.events.produce(c.Name)
		}
	}()

	if !opts.Force && c.UpToDate() {
		return nil
	}

	if c.Fetcher == nil {
		return fmt.Errorf("component %q (type %s) has no fetcher bound", c.Name, c.Config.Type)
	}

	paths, err := c.Fetcher.Fetch(ctx, rootDir, opts)
	if err != nil {
		return NewFetchError(c.Name, string(c.Config.Type), err)
	}
	c.FetchedPaths = paths

	if c.OnFetched != nil {
		if err := c.OnFetched(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
