package git

import (
	"context"
	"os"
	"path/filepath"
)

// InitBare creates a bare repository at dir if one does not already exist.
// Used for the global object cache: one bare repo per source URL, shared
// as an alternate across every working tree cloned from that URL.
func InitBare(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return (&Git{Dir: dir}).RunSilent(ctx, "init", "--bare")
}

// AlternatesPath returns the path to a working tree's objects/info/alternates file.
func AlternatesPath(workTree string) string {
	return filepath.Join(workTree, ".git", "objects", "info", "alternates")
}

// AddAlternates points workTree's object store at objectsDir so blobs already
// present there (e.g. in a shared cache repo) are reused instead of re-fetched.
// Idempotent: re-adding the same objectsDir is a no-op.
func AddAlternates(workTree, objectsDir string) error {
	path := AlternatesPath(workTree)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	existing, err := os.ReadFile(path)
	if err == nil {
		for _, line := range splitLines(string(existing)) {
			if line == objectsDir {
				return nil
			}
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(objectsDir + "\n")
	return err
}

// HasValidAlternates reports whether workTree has an alternates file and every
// referenced objects directory still exists. A dangling alternate means the
// cache repo was removed out from under the tree and object integrity can no
// longer be guaranteed — the caller should wipe and re-init.
func HasValidAlternates(workTree string) bool {
	data, err := os.ReadFile(AlternatesPath(workTree))
	if err != nil {
		return true // no alternates file: nothing to invalidate
	}
	for _, line := range splitLines(string(data)) {
		if line == "" {
			continue
		}
		if _, err := os.Stat(line); err != nil {
			return false
		}
	}
	return true
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
