package core

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/habitat-build/habitat/internal/types"
)

// Solution drives one run over a checkout: it loads the solution file,
// fetches each top-level entry, recursively evaluates DEPS files as
// solution-type children are fetched, and persists the entries cache once
// the whole tree has settled.
type Solution struct {
	RootDir      string
	DepsFileName string
	RC           *RuntimeContext

	// RunID identifies one Sync invocation for correlating log lines and
	// JSON output across a run; it has no bearing on fetch behavior.
	RunID string

	registry *sourceRegistry

	// stamps is built once from the entries cache before any fetch starts
	// and never mutated afterward, so concurrent reads from Component's
	// UpToDate checks need no synchronization.
	stamps map[string]string

	entriesMu sync.Mutex
	entries   []types.CacheEntry
}

// NewSolution constructs a Solution rooted at rootDir.
func NewSolution(rootDir string, rc *RuntimeContext) *Solution {
	return &Solution{
		RootDir:      rootDir,
		DepsFileName: DefaultDepsFileName,
		RC:           rc,
		RunID:        uuid.NewString(),
		registry:     newSourceRegistry(),
	}
}

// Sync loads the solution file, fetches every top-level entry, and
// persists the entries cache on success. targets selects which
// target_deps_files to additionally evaluate at every DEPS level;
// targetOnly skips each level's base DEPS when at least one target was
// requested.
func (s *Solution) Sync(ctx context.Context, opts FetchOptions, targets []string, targetOnly bool) error {
	sfPath := filepath.Join(s.RootDir, DefaultSolutionFileName)
	sf, err := LoadSolutionFile(sfPath)
	if err != nil {
		return err
	}

	cache := LoadEntriesCache(ctx, s.RC.Git, s.RootDir)
	s.stamps = stampsByName(cache)

	group := NewDependencyGroup(".", s.registry, s.RC)
	var children []*Component
	for _, entry := range sf.Solutions {
		cfg := types.NodeConfig{
			Name:            entry.Name,
			Type:            types.NodeSolution,
			URL:             entry.URL,
			Branch:          entry.Branch,
			Commit:          entry.Commit,
			Tag:             entry.Tag,
			DepsFile:        entry.DepsFile,
			Targets:         entry.Targets,
			TargetDepsFiles: entry.TargetDepsFiles,
			MappingFile:     entry.MappingFile,
		}
		if sf.Mappings != nil {
			ApplyMappings(&cfg, sf.Mappings)
		}
		targetDir := filepath.Join(s.RootDir, entry.Name)
		c := NewComponent(entry.Name, cfg, targetDir, group, s.stamps)
		s.bindFetcher(c, s.RootDir, targetDir, targets, targetOnly, true, opts)
		children = append(children, c)
	}

	if err := group.FetchChildren(ctx, s.RootDir, opts, children); err != nil {
		return err
	}
	s.recordEntries(children)

	return StoreEntriesCache(ctx, s.RC.Git, s.RootDir, s.snapshotEntries())
}

// loadGroup evaluates one DEPS level (base + requested targets, merged per
// spec's OR-condition / RHS-wins rule) and schedules its children. Called
// from a solution-type node's OnFetched once that node's own git checkout
// has landed.
func (s *Solution) loadGroup(ctx context.Context, dir string, parentCfg types.NodeConfig, targets []string, targetOnly bool, opts FetchOptions) error {
	depsFileName := parentCfg.DepsFile
	if depsFileName == "" {
		depsFileName = s.DepsFileName
	}

	merged := map[string]types.NodeConfig{}
	skipBase := targetOnly && len(targets) > 0
	if !skipBase {
		basePath := filepath.Join(dir, depsFileName)
		if _, err := s.RC.FS.Stat(basePath); err == nil {
			base, err := LoadDepsFile(basePath, "", dir)
			if err != nil {
				return err
			}
			merged = base
		}
	}

	for _, target := range targets {
		tRelPath := ""
		if parentCfg.TargetDepsFiles != nil {
			tRelPath = parentCfg.TargetDepsFiles[target]
		}
		if tRelPath == "" {
			tRelPath = depsFileName + "." + target
		}
		full := filepath.Join(dir, tRelPath)
		if _, err := s.RC.FS.Stat(full); err != nil {
			continue
		}
		targetCfgs, err := LoadDepsFile(full, target, dir)
		if err != nil {
			return err
		}
		for name, cfg := range targetCfgs {
			if base, ok := merged[name]; ok {
				merged[name] = mergeNodeConfig(base, cfg)
			} else {
				merged[name] = cfg
			}
		}
	}

	if parentCfg.MappingFile != "" {
		mapPath := filepath.Join(dir, parentCfg.MappingFile)
		if mp, err := LoadMappingFile(mapPath); err == nil {
			for name, cfg := range merged {
				ApplyMappings(&cfg, mp)
				merged[name] = cfg
			}
		}
	}

	group := NewDependencyGroup(dir, s.registry, s.RC)
	var children []*Component
	for name, cfg := range merged {
		targetDir := filepath.Join(dir, filepath.FromSlash(name))
		c := NewComponent(name, cfg, targetDir, group, s.stamps)
		s.bindFetcher(c, dir, targetDir, targets, targetOnly, false, opts)
		children = append(children, c)
	}

	if err := group.FetchChildren(ctx, dir, opts, children); err != nil {
		return err
	}
	s.recordEntries(children)
	return nil
}

// bindFetcher chooses and attaches the fetcher a node's type requires, and
// for solution-type nodes, an OnFetched hook that recurses into loadGroup
// once the node's own checkout exists on disk.
func (s *Solution) bindFetcher(c *Component, dir, targetDir string, targets []string, targetOnly bool, isRoot bool, opts FetchOptions) {
	switch c.Config.Type {
	case types.NodeGit:
		c.Fetcher = &GitFetcher{Name: c.Name, Config: c.Config, RC: s.RC, IsRoot: isRoot, PatchBaseDir: dir}
	case types.NodeHTTP:
		c.Fetcher = &HTTPFetcher{Name: c.Name, Config: c.Config, RC: s.RC}
	case types.NodeAction:
		c.Fetcher = &ActionFetcher{Name: c.Name, Config: c.Config, RootDir: dir, UI: s.RC.UI}
	case types.NodeSolution:
		c.Fetcher = &GitFetcher{Name: c.Name, Config: c.Config, RC: s.RC, IsRoot: isRoot, PatchBaseDir: dir}
		cfg := c.Config
		c.OnFetched = func(ctx context.Context, comp *Component) error {
			return s.loadGroup(ctx, comp.TargetDir, cfg, targets, targetOnly, opts)
		}
	default:
		c.Fetcher = &DummyFetcher{Name: c.Name, UI: s.RC.UI}
	}
}

func conditionTrue(cfg types.NodeConfig) bool {
	return cfg.Condition == nil || *cfg.Condition
}

// boolValue reads an optional bool field, defaulting to false when unset.
func boolValue(b *bool) bool {
	return b != nil && *b
}

// recordEntries appends one cache entry per condition-true child, regardless
// of whether the scheduler ultimately skipped it for a conflict — the
// entries cache records declared intent, not fetch outcome.
func (s *Solution) recordEntries(children []*Component) {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range children {
		if !conditionTrue(c.Config) {
			continue
		}
		s.entries = append(s.entries, types.CacheEntry{
			Name:      c.Name,
			Type:      c.Config.Type,
			Stamp:     c.SourceStamp(),
			Paths:     c.FetchedPaths,
			FetchedAt: now,
		})
	}
}

func (s *Solution) snapshotEntries() []types.CacheEntry {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()
	return append([]types.CacheEntry(nil), s.entries...)
}

// mergeNodeConfig combines a base DEPS entry with a target-specific override
// of the same name: Condition OR-combines (truthiness); every other field,
// including the optional booleans, takes the override's value when it set
// one (non-nil/non-zero), else keeps the base's.
func mergeNodeConfig(base, override types.NodeConfig) types.NodeConfig {
	merged := base

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Require != nil {
		merged.Require = override.Require
	}
	if override.FetchMode != "" {
		merged.FetchMode = override.FetchMode
	}
	if override.IgnoreInGit != nil {
		merged.IgnoreInGit = override.IgnoreInGit
	}
	if override.DisableLink != nil {
		merged.DisableLink = override.DisableLink
	}

	if override.URL != "" {
		merged.URL = override.URL
	}
	if override.Branch != "" {
		merged.Branch = override.Branch
	}
	if override.Commit != "" {
		merged.Commit = override.Commit
	}
	if override.Tag != "" {
		merged.Tag = override.Tag
	}
	if override.EnableLFS != nil {
		merged.EnableLFS = override.EnableLFS
	}
	if override.Patches != nil {
		merged.Patches = override.Patches
	}

	if override.SHA256 != "" {
		merged.SHA256 = override.SHA256
	}
	if override.Decompress != nil {
		merged.Decompress = override.Decompress
	}
	if override.Paths != nil {
		merged.Paths = override.Paths
	}

	if override.Commands != nil {
		merged.Commands = override.Commands
	}
	if override.Cwd != "" {
		merged.Cwd = override.Cwd
	}
	if override.Env != nil {
		merged.Env = override.Env
	}

	if override.DepsFile != "" {
		merged.DepsFile = override.DepsFile
	}
	if override.TargetDepsFiles != nil {
		merged.TargetDepsFiles = override.TargetDepsFiles
	}
	if override.Targets != nil {
		merged.Targets = override.Targets
	}
	if override.MappingFile != "" {
		merged.MappingFile = override.MappingFile
	}

	merged.Condition = orCondition(base.Condition, override.Condition)
	return merged
}

func orCondition(a, b *bool) *bool {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	r := *a || *b
	return &r
}
