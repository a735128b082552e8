package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/habitat-build/habitat/internal/types"
)

// DependencyGroup schedules one DEPS file's children: condition filtering,
// source/target dedup against the run-wide registry, require-edge ordering
// via its own eventManager, and a barrier that cancels siblings on the
// first failure.
type DependencyGroup struct {
	Name     string
	registry *sourceRegistry
	rc       *RuntimeContext
	events   *eventManager
}

// NewDependencyGroup constructs a group scoped to one DEPS file's children,
// sharing the run-wide registry so cross-group source/target conflicts are
// still detected.
func NewDependencyGroup(name string, registry *sourceRegistry, rc *RuntimeContext) *DependencyGroup {
	return &DependencyGroup{
		Name:     name,
		registry: registry,
		rc:       rc,
		events:   newEventManager(),
	}
}

func (g *DependencyGroup) requireTimeoutChan() <-chan struct{} {
	timeout := g.rc.RequireTimeout
	if timeout <= 0 {
		timeout = DefaultRequireTimeout
	}
	ch := make(chan struct{})
	go func() {
		t := time.NewTimer(timeout)
		defer t.Stop()
		<-t.C
		close(ch)
	}()
	return ch
}

// requireName returns the child's require list, or nil if it declares none.
func requireName(c *Component) []string {
	return c.Config.Require
}

// detectRequireCycle runs a DFS over the require edges declared by this
// batch of children (require targets outside the batch are treated as
// already-resolved leaves, since they belong to an earlier group or were
// already scheduled). Returns the cycle path, or nil if acyclic.
func detectRequireCycle(children []*Component) []string {
	byName := make(map[string]*Component, len(children))
	for _, c := range children {
		byName[c.Name] = c
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(children))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		c, ok := byName[name]
		if !ok {
			return false
		}
		color[name] = gray
		path = append(path, name)
		for _, req := range requireName(c) {
			switch color[req] {
			case gray:
				// found the cycle: the suffix of path from req's first
				// occurrence back to here, plus req itself to close the loop.
				start := indexOf(path, req)
				cycle = append([]string(nil), path[start:]...)
				cycle = append(cycle, req)
				return true
			case white:
				if visit(req) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	for _, c := range children {
		if color[c.Name] == white {
			if visit(c.Name) {
				return cycle
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

// FetchChildren runs the scheduling algorithm of spec §4.8 over one DEPS
// file's children: condition filtering, dedup against the shared registry,
// require-set pruning, and a concurrent barrier keyed on require ordering.
func (g *DependencyGroup) FetchChildren(ctx context.Context, rootDir string, opts FetchOptions, children []*Component) error {
	var active []*Component
	for _, c := range children {
		if c.Config.Condition != nil && !*c.Config.Condition {
			continue
		}
		active = append(active, c)
	}

	if cycle := detectRequireCycle(active); cycle != nil {
		return NewCycleError(cycle)
	}

	skipped := make(map[string]bool)

	for _, c := range active {
		source := c.Source()
		stamp := c.SourceStamp()

		if rec, ok := g.registry.lookupSource(source); ok && source != "" {
			if rec.stamp == stamp && equalPathSets(rec.paths, c.Config.Paths) {
				c.Fetcher = &LocalFetcher{
					Reference:     rec.node,
					ReferenceName: rec.nodeName,
					Group:         g,
					FS:            g.rc.FS,
					UI:            g.rc.UI,
					DisableLink:   boolValue(c.Config.DisableLink),
				}
			} else if rec.stamp != stamp {
				if opts.Strict {
					return NewConflictError(source, rec.nodeName, c.Name)
				}
				if g.rc.UI != nil {
					g.rc.UI.ShowWarning("Source conflict", fmt.Sprintf(
						"node %q and %q both claim source %q with different pins; fetching %q directly",
						rec.nodeName, c.Name, source, c.Name))
				}
			}
		}

		if prevSource, ok := g.registry.lookupTarget(c.TargetDir); ok && prevSource != source {
			skipped[c.Name] = true
			if g.rc.UI != nil {
				g.rc.UI.ShowWarning("Target conflict", fmt.Sprintf(
					"node %q's target %q is already claimed by a different source; skipping", c.Name, c.TargetDir))
			}
			continue
		}

		if source != "" {
			g.registry.registerSource(source, &sourceRecord{nodeName: c.Name, stamp: stamp, paths: c.Config.Paths, node: c})
		}
		g.registry.registerTarget(c.TargetDir, source)
	}

	// Fixed-point prune: drop children whose require set references a
	// name that ended up skipped, repeating until stable since pruning one
	// child can skip another that required it.
	for changed := true; changed; {
		changed = false
		for _, c := range active {
			if skipped[c.Name] {
				continue
			}
			for _, req := range c.Config.Require {
				if skipped[req] {
					skipped[c.Name] = true
					changed = true
					if g.rc.UI != nil {
						g.rc.UI.ShowWarning("Dependency skipped", fmt.Sprintf(
							"node %q requires skipped node %q and will not be fetched", c.Name, req))
					}
					break
				}
			}
		}
	}

	var scheduled []*Component
	for _, c := range active {
		if !skipped[c.Name] {
			scheduled = append(scheduled, c)
		}
	}

	for _, req := range scheduled {
		g.events.chanFor(req.Name)
	}

	var tracker types.ProgressTracker
	if g.rc.UI != nil && len(scheduled) > 0 {
		label := g.Name
		if label == "" || label == "." {
			label = "solution"
		}
		tracker = g.rc.UI.StartProgress(len(scheduled), label)
	}

	eg, egctx := errgroup.WithContext(ctx)
	for _, child := range scheduled {
		child := child
		eg.Go(func() error {
			for _, req := range child.Config.Require {
				if err := g.events.wait(egctx, req, child.Name, g.requireTimeoutChan()); err != nil {
					return err
				}
			}
			err := child.Fetch(egctx, child.TargetDir, opts)
			if tracker != nil {
				tracker.Increment(child.Name)
			}
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		g.events.clear()
		if tracker != nil {
			tracker.Fail(err)
		}
		return err
	}
	if tracker != nil {
		tracker.Complete()
	}
	return nil
}
