package core

import (
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// RuntimeContext carries the process-wide resources a run's fetchers share:
// the HTTP concurrency cap, the filesystem worker cap, the global object
// cache directory, and the run's strictness/force flags. It replaces the
// module-level singletons the original tool keeps for these resources —
// every fetcher receives one explicitly instead of reaching for global
// state, so tests can construct a RuntimeContext with tight limits.
type RuntimeContext struct {
	// HTTPSemaphore bounds concurrent HTTP requests (chunked range GETs and
	// whole-file downloads) across the entire run.
	HTTPSemaphore *semaphore.Weighted

	// FSSemaphore is sized from the concurrency setting. No fetcher acquires
	// it, so recursive copies and removals are not bounded by it.
	FSSemaphore *semaphore.Weighted

	// CacheDir is the root of the global object/artifact cache
	// ($HOME/.habitat_cache by default).
	CacheDir string

	// RequireTimeout bounds how long a child waits on a require edge before
	// raising TimeoutError.
	RequireTimeout time.Duration

	Force          bool
	Clean          bool
	Strict         bool
	DisableCache   bool
	DisableIgnore  bool
	NoHistory      bool
	Raw            bool
	GitAuth        string
	UI             UICallback
	Git            GitClient
	FS             FileSystem
}

// DefaultHTTPConcurrency mirrors the source's process-wide cap on
// concurrent HTTP requests.
const DefaultHTTPConcurrency = 50

// DefaultRequireTimeout mirrors the source's default bound on a require wait.
const DefaultRequireTimeout = 1200 * time.Second

// NewRuntimeContext builds a RuntimeContext with the default concurrency
// caps, deriving the filesystem worker cap from the host's CPU count unless
// overridden by concurrency.
func NewRuntimeContext(cacheDir string, concurrency int, git GitClient, fs FileSystem, ui UICallback) *RuntimeContext {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &RuntimeContext{
		HTTPSemaphore:  semaphore.NewWeighted(DefaultHTTPConcurrency),
		FSSemaphore:    semaphore.NewWeighted(int64(concurrency)),
		CacheDir:       cacheDir,
		RequireTimeout: DefaultRequireTimeout,
		UI:             ui,
		Git:            git,
		FS:             fs,
	}
}
