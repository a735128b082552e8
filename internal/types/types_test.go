package types

import (
	"testing"

	"github.com/habitat-build/habitat/internal/testutil"
	"gopkg.in/yaml.v3"
)

func boolPtr(b bool) *bool { return &b }

// ============================================================================
// NodeConfig YAML Tests
// ============================================================================

func TestNodeConfig_YAML_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		node NodeConfig
	}{
		{
			name: "git node with patches",
			node: NodeConfig{
				Name:      "widgets",
				Type:      NodeGit,
				URL:       "https://github.com/acme/widgets",
				Branch:    "main",
				Commit:    "abc123",
				EnableLFS: boolPtr(true),
				Patches:   []string{"patches/0001-fix.patch"},
				Require:   []string{"base-lib"},
			},
		},
		{
			name: "http node with paths",
			node: NodeConfig{
				Name:       "release-tarball",
				Type:       NodeHTTP,
				URL:        "https://example.com/release.tar.gz",
				SHA256:     "deadbeef",
				Decompress: boolPtr(true),
				Paths:      []string{"bin/", "share/doc/"},
			},
		},
		{
			name: "action node with shell and argv steps",
			node: NodeConfig{
				Name: "codegen",
				Type: NodeAction,
				Commands: []ActionCommand{
					{Shell: "make generate"},
					{Argv: []string{"go", "fmt", "./..."}},
				},
				Cwd: "tools/codegen",
				Env: map[string]string{"CGO_ENABLED": "0"},
			},
		},
		{
			name: "solution node with target deps files",
			node: NodeConfig{
				Name:            "frontend",
				Type:            NodeSolution,
				DepsFile:        "DEPS",
				TargetDepsFiles: map[string]string{"ci": "DEPS.ci"},
				Targets:         []string{"web", "mobile"},
				MappingFile:     "mapping.yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertYAMLRoundTrip(t, tt.node)
		})
	}
}

func TestNodeConfig_YAML_OmitsEmptyOptionalFields(t *testing.T) {
	node := NodeConfig{Name: "minimal", Type: NodeGit, URL: "https://example.com/repo.git"}

	for _, field := range []string{"require", "ignore_in_git", "fetch_mode", "disable_link", "branch", "commit", "tag", "enable_lfs", "patches"} {
		testutil.AssertYAMLOmitsField(t, node, field)
	}
	testutil.AssertYAMLContainsField(t, node, "name")
	testutil.AssertYAMLContainsField(t, node, "url")
}

func TestNodeConfig_Condition_DistinguishesUnsetFromFalse(t *testing.T) {
	unset := NodeConfig{Name: "n"}
	if unset.Condition != nil {
		t.Fatalf("zero-value NodeConfig should leave Condition nil, got %v", unset.Condition)
	}

	no := false
	withFalse := NodeConfig{Name: "n", Condition: &no}

	data, err := yaml.Marshal(withFalse)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var parsed NodeConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Condition == nil || *parsed.Condition != false {
		t.Errorf("Condition = %v, want pointer to false", parsed.Condition)
	}
}

// ============================================================================
// SourceKey Tests
// ============================================================================

func TestSourceKey_Equality(t *testing.T) {
	a := SourceKey{Type: NodeGit, Stamp: "https://example.com/repo@abc123"}
	b := SourceKey{Type: NodeGit, Stamp: "https://example.com/repo@abc123"}
	c := SourceKey{Type: NodeGit, Stamp: "https://example.com/repo@def456"}

	if a != b {
		t.Error("identical type+stamp should compare equal")
	}
	if a == c {
		t.Error("differing stamp should compare unequal")
	}
}

func TestSourceKey_UsableAsMapKey(t *testing.T) {
	seen := map[SourceKey]string{}
	key := SourceKey{Type: NodeHTTP, Stamp: "https://example.com/a.tgz#deadbeef"}
	seen[key] = "first-owner"

	if owner, ok := seen[key]; !ok || owner != "first-owner" {
		t.Errorf("SourceKey lookup = (%q, %v), want (first-owner, true)", owner, ok)
	}
}

// ============================================================================
// EntriesCache / CacheEntry JSON Tests
// ============================================================================

func TestEntriesCache_JSON_RoundTrip(t *testing.T) {
	cache := EntriesCache{
		Entries: []CacheEntry{
			{Name: "widgets", Type: NodeGit, Stamp: "abc123", Paths: []string{"vendor/widgets"}, FetchedAt: "2026-07-30T00:00:00Z"},
			{Name: "release-tarball", Type: NodeHTTP, Stamp: "deadbeef", Paths: []string{"vendor/bin"}, FetchedAt: "2026-07-30T00:05:00Z"},
		},
		Hash: "graph-hash-xyz",
	}
	testutil.AssertJSONRoundTrip(t, cache)
}

func TestEntriesCache_JSON_EmptyEntriesNotNull(t *testing.T) {
	cache := EntriesCache{Entries: []CacheEntry{}, Hash: "empty"}
	testutil.AssertJSONContainsField(t, cache, "entries")
	testutil.AssertJSONContainsField(t, cache, "hash")
}

// ============================================================================
// PathConflict Tests
// ============================================================================

func TestPathConflict_FieldsCarryWinnerAndLoser(t *testing.T) {
	conflict := PathConflict{Path: "vendor/lib/util.go", Winner: "node-a", Skipped: "node-b"}
	if conflict.Winner == conflict.Skipped {
		t.Fatal("test fixture should use distinct winner/skipped names")
	}
	testutil.AssertEqual(t, conflict.Path, "vendor/lib/util.go", "Path")
}
