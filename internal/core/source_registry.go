package core

import (
	"path/filepath"
	"sort"
	"sync"
)

// sourceRecord is what the registry remembers about the first node to claim
// a given source.
type sourceRecord struct {
	nodeName string
	stamp    string
	paths    []string
	node     *Component
}

// sourceRegistry is the cross-group dedup table threaded through an entire
// Solution run: existing_sources and existing_targets from spec §4.8, kept
// together behind one mutex since sibling groups across the tree touch both
// concurrently.
type sourceRegistry struct {
	mu      sync.Mutex
	sources map[string]*sourceRecord
	targets map[string]string // normalized target dir -> source
}

func newSourceRegistry() *sourceRegistry {
	return &sourceRegistry{
		sources: make(map[string]*sourceRecord),
		targets: make(map[string]string),
	}
}

func (r *sourceRegistry) lookupSource(source string) (*sourceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sources[source]
	return rec, ok
}

func (r *sourceRegistry) registerSource(source string, rec *sourceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source] = rec
}

func (r *sourceRegistry) lookupTarget(target string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.targets[normalizeTargetKey(target)]
	return src, ok
}

func (r *sourceRegistry) registerTarget(target, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[normalizeTargetKey(target)] = source
}

func normalizeTargetKey(target string) string {
	return filepath.Clean(target)
}

func equalPathSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string(nil), a...), append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
