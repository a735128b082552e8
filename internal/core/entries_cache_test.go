package core

import (
	"context"
	"testing"

	"github.com/habitat-build/habitat/internal/types"
)

func TestEntriesCache_StoreThenLoadRoundTrips(t *testing.T) {
	git := NewSystemGitClient(false)
	dir := t.TempDir()
	newSeededRepo(t, dir)
	ctx := context.Background()

	entries := []types.CacheEntry{
		{Name: "lib", Type: types.NodeGit, Stamp: "https://example.com/lib.git@commit:abc", Paths: []string{"lib"}, FetchedAt: "2026-07-30T00:00:00Z"},
		{Name: "asset", Type: types.NodeHTTP, Stamp: "https://example.com/a.tar.gz@sha256", FetchedAt: "2026-07-30T00:00:00Z"},
	}

	if err := StoreEntriesCache(ctx, git, dir, entries); err != nil {
		t.Fatalf("StoreEntriesCache failed: %v", err)
	}

	cache := LoadEntriesCache(ctx, git, dir)
	if len(cache.Entries) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(cache.Entries))
	}
	stamps := stampsByName(cache)
	if stamps["lib"] != entries[0].Stamp {
		t.Errorf("stamps[lib] = %q, want %q", stamps["lib"], entries[0].Stamp)
	}
}

func TestEntriesCache_LoadWithNoTagReturnsEmpty(t *testing.T) {
	git := NewSystemGitClient(false)
	dir := t.TempDir()
	newSeededRepo(t, dir)

	cache := LoadEntriesCache(context.Background(), git, dir)
	if len(cache.Entries) != 0 {
		t.Errorf("expected empty cache with no tag, got %d entries", len(cache.Entries))
	}
}

func TestEntriesCache_StoreOverwritesAtSameHEAD(t *testing.T) {
	git := NewSystemGitClient(false)
	dir := t.TempDir()
	newSeededRepo(t, dir)
	ctx := context.Background()

	first := []types.CacheEntry{{Name: "lib", Type: types.NodeGit, Stamp: "v1"}}
	if err := StoreEntriesCache(ctx, git, dir, first); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	second := []types.CacheEntry{{Name: "lib", Type: types.NodeGit, Stamp: "v2"}}
	if err := StoreEntriesCache(ctx, git, dir, second); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	cache := LoadEntriesCache(ctx, git, dir)
	if len(cache.Entries) != 1 || cache.Entries[0].Stamp != "v2" {
		t.Errorf("expected overwritten single entry with stamp v2, got %+v", cache.Entries)
	}
}

func TestHashEntries_OrderIndependent(t *testing.T) {
	a := []types.CacheEntry{{Name: "a", Stamp: "1"}, {Name: "b", Stamp: "2"}}
	b := []types.CacheEntry{{Name: "b", Stamp: "2"}, {Name: "a", Stamp: "1"}}
	if hashEntries(a) != hashEntries(b) {
		t.Error("hashEntries should be independent of input order")
	}
}

func TestHashEntries_DiffersOnStampChange(t *testing.T) {
	a := []types.CacheEntry{{Name: "a", Stamp: "1"}}
	b := []types.CacheEntry{{Name: "a", Stamp: "2"}}
	if hashEntries(a) == hashEntries(b) {
		t.Error("hashEntries should differ when a stamp changes")
	}
}
