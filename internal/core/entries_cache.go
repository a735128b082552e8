package core

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/habitat-build/habitat/internal/types"
)

// entriesTagPrefix is the git tag family the entries cache is stored under,
// one per HEAD commit of the host repository.
const entriesTagPrefix = "habitat_entries_"

func entriesTagName(headSHA string) string {
	return entriesTagPrefix + headSHA
}

// LoadEntriesCache reads the entries cache blob for the host repository's
// current HEAD, verifying its hash. A missing tag, unreadable blob, or a
// hash mismatch are all treated as "nothing cached" rather than fatal: the
// caller falls back to treating every node as unresolved.
func LoadEntriesCache(ctx context.Context, git GitClient, repoDir string) *types.EntriesCache {
	head, err := git.HEAD(ctx, repoDir)
	if err != nil {
		return &types.EntriesCache{}
	}
	tag := entriesTagName(head)
	exists, err := git.TagExists(ctx, repoDir, tag)
	if err != nil || !exists {
		return &types.EntriesCache{}
	}
	sha, err := git.TagTarget(ctx, repoDir, tag)
	if err != nil {
		return &types.EntriesCache{}
	}
	blob, err := git.CatFileBlob(ctx, repoDir, sha)
	if err != nil {
		return &types.EntriesCache{}
	}

	var cache types.EntriesCache
	if err := json.Unmarshal(blob, &cache); err != nil {
		return &types.EntriesCache{}
	}
	if hashEntries(cache.Entries) != cache.Hash {
		return &types.EntriesCache{}
	}
	return &cache
}

// StoreEntriesCache persists entries as a blob tagged to the host
// repository's current HEAD, replacing any previous tag for that commit.
func StoreEntriesCache(ctx context.Context, git GitClient, repoDir string, entries []types.CacheEntry) error {
	head, err := git.HEAD(ctx, repoDir)
	if err != nil {
		return fmt.Errorf("resolving HEAD to store entries cache: %w", err)
	}

	cache := types.EntriesCache{Entries: entries, Hash: hashEntries(entries)}
	blob, err := json.Marshal(cache)
	if err != nil {
		return err
	}

	sha, err := git.HashObjectWrite(ctx, repoDir, blob)
	if err != nil {
		return fmt.Errorf("writing entries cache blob: %w", err)
	}
	if err := git.TagForce(ctx, repoDir, entriesTagName(head), sha); err != nil {
		return fmt.Errorf("tagging entries cache blob: %w", err)
	}
	return nil
}

// hashEntries computes a stable content hash over entries: sorted by name
// so the same node set hashes identically regardless of evaluation order.
func hashEntries(entries []types.CacheEntry) string {
	sorted := append([]types.CacheEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, e := range sorted {
		b.WriteString(e.Name)
		b.WriteByte('\x00')
		b.WriteString(e.Stamp)
		b.WriteByte('\x00')
	}
	sum := md5.Sum([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

// stampsByName reduces a loaded EntriesCache to the name→stamp table
// Components consult for their up-to-date check.
func stampsByName(cache *types.EntriesCache) map[string]string {
	out := make(map[string]string, len(cache.Entries))
	for _, e := range cache.Entries {
		out[e.Name] = e.Stamp
	}
	return out
}
