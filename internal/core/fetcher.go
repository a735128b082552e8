package core

import "context"

// FetchOptions carries the per-run flags a fetcher needs, threaded down
// from the CLI through Solution and DependencyGroup to each Component.
type FetchOptions struct {
	Force         bool
	Clean         bool
	NoHistory     bool
	Raw           bool
	GitAuth       string
	DisableCache  bool
	CacheDir      string
	Strict        bool
	DisableIgnore bool
}

// Fetcher is the uniform contract every node type implements to acquire its
// contents. Fetch may suspend on process or network I/O and returns the
// absolute paths it created on disk, for use by LocalFetcher instances
// mirroring the same layout elsewhere in the graph.
type Fetcher interface {
	Fetch(ctx context.Context, rootDir string, opts FetchOptions) ([]string, error)
}
