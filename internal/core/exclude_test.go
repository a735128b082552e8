package core

import (
	"path/filepath"
	"testing"
)

// ============================================================================
// MatchesExclude Unit Tests
// ============================================================================

func TestMatchesExclude_SimpleGlob(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"match md extension", "README.md", "*.md", true},
		{"no match go file", "main.go", "*.md", false},
		{"match hidden file", ".gitignore", ".gitignore", true},
		{"no match nested md", "docs/guide.md", "*.md", false}, // * does not cross /
		{"match txt", "notes.txt", "*.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesExclude(tt.path, []string{tt.pattern})
			if got != tt.want {
				t.Errorf("MatchesExclude(%q, [%q]) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMatchesExclude_DirectoryGlob(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"match dir child", ".claude/settings.json", ".claude/**", true},
		{"match dir nested", ".claude/rules/foo.md", ".claude/**", true},
		{"match dir itself", ".claude", ".claude/**", true},
		{"no match sibling", "src/main.go", ".claude/**", false},
		{"match github dir", ".github/workflows/ci.yml", ".github/**", true},
		{"match docs internal", "docs/internal/design.md", "docs/internal/**", true},
		{"no match docs root", "docs/README.md", "docs/internal/**", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesExclude(tt.path, []string{tt.pattern})
			if got != tt.want {
				t.Errorf("MatchesExclude(%q, [%q]) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMatchesExclude_MultiplePatterns(t *testing.T) {
	patterns := []string{".claude/**", ".github/**", "README.md"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"match claude", ".claude/settings.json", true},
		{"match github", ".github/workflows/ci.yml", true},
		{"match readme", "README.md", true},
		{"no match source", "src/main.go", false},
		{"no match nested readme", "docs/README.md", false}, // exact match only for non-glob
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesExclude(tt.path, patterns)
			if got != tt.want {
				t.Errorf("MatchesExclude(%q, %v) = %v, want %v", tt.path, patterns, got, tt.want)
			}
		})
	}
}

func TestMatchesExclude_NoPatterns(t *testing.T) {
	// No patterns means nothing is excluded
	if MatchesExclude("any/file.go", nil) {
		t.Error("MatchesExclude with nil patterns should return false")
	}
	if MatchesExclude("any/file.go", []string{}) {
		t.Error("MatchesExclude with empty patterns should return false")
	}
}

func TestMatchesExclude_RecursiveGlobSuffix(t *testing.T) {
	// Pattern: **/*.md should match .md files at any depth
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"root level md", "README.md", true},
		{"nested md", "docs/guide.md", true},
		{"deep nested md", "a/b/c/notes.md", true},
		{"go file", "main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesExclude(tt.path, []string{"**/*.md"})
			if got != tt.want {
				t.Errorf("MatchesExclude(%q, [**/*.md]) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchesExclude_CrossPlatformSlashes(t *testing.T) {
	// Backslashes should be normalized to forward slashes
	got := MatchesExclude(filepath.Join(".claude", "settings.json"), []string{".claude/**"})
	if !got {
		t.Error("MatchesExclude should normalize OS path separators for matching")
	}
}
