package core

import (
	"context"
	"errors"
	"testing"

	"github.com/habitat-build/habitat/internal/types"
)

type fakeFetcher struct {
	paths []string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ FetchOptions) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.paths, nil
}

func newTestGroup() *DependencyGroup {
	return NewDependencyGroup("test", newSourceRegistry(), &RuntimeContext{RequireTimeout: DefaultRequireTimeout})
}

func TestComponent_SourceStamp_Git(t *testing.T) {
	cfg := types.NodeConfig{Type: types.NodeGit, URL: "https://example.com/repo.git", Commit: "abc123"}
	c := NewComponent("repo", cfg, "/tmp/repo", newTestGroup(), nil)
	want := "https://example.com/repo.git@commit:abc123"
	if got := c.SourceStamp(); got != want {
		t.Errorf("SourceStamp() = %q, want %q", got, want)
	}
}

func TestComponent_SourceStamp_Action(t *testing.T) {
	cfg := types.NodeConfig{Type: types.NodeAction, Commands: []types.ActionCommand{{Shell: "echo hi"}}}
	c := NewComponent("gen", cfg, "/tmp/gen", newTestGroup(), nil)
	if got := c.SourceStamp(); got != "(action)" {
		t.Errorf("SourceStamp() = %q, want \"(action)\"", got)
	}
}

func TestComponent_UpToDate_ActionNeverUpToDate(t *testing.T) {
	cfg := types.NodeConfig{Type: types.NodeAction, Commands: []types.ActionCommand{{Shell: "echo hi"}}}
	c := NewComponent("gen", cfg, "/tmp/gen", newTestGroup(), map[string]string{"gen": "(action)"})
	if c.UpToDate() {
		t.Error("action node reported UpToDate, want always false")
	}
}

func TestComponent_UpToDate_GitRequiresFullSHA(t *testing.T) {
	cfg := types.NodeConfig{Type: types.NodeGit, URL: "https://example.com/repo.git", Commit: "main"}
	c := NewComponent("repo", cfg, "/tmp/repo", newTestGroup(), map[string]string{"repo": cfg.URL + "@commit:main"})
	if c.UpToDate() {
		t.Error("git node pinned to a non-SHA ref reported UpToDate, want false")
	}

	full := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	cfg.Commit = full
	c = NewComponent("repo", cfg, "/tmp/repo", newTestGroup(), map[string]string{"repo": cfg.URL + "@commit:" + full})
	if !c.UpToDate() {
		t.Error("git node pinned to a full SHA with matching stamp reported not UpToDate")
	}
}

func TestComponent_UpToDate_HTTPMatchesOnStampOnly(t *testing.T) {
	cfg := types.NodeConfig{Type: types.NodeHTTP, URL: "https://example.com/a.tar.gz", SHA256: "deadbeef"}
	c := NewComponent("a", cfg, "/tmp/a", newTestGroup(), map[string]string{"a": c0SourceStamp(cfg)})
	if !c.UpToDate() {
		t.Error("http node with matching stamp reported not UpToDate")
	}
}

func c0SourceStamp(cfg types.NodeConfig) string {
	return cfg.URL + "@" + cfg.SHA256
}

func TestComponent_Fetch_ProducesEventOnSuccess(t *testing.T) {
	group := newTestGroup()
	cfg := types.NodeConfig{Type: types.NodeHTTP, URL: "https://example.com/a.tar.gz"}
	c := NewComponent("a", cfg, "/tmp/a", group, nil)
	c.Fetcher = &fakeFetcher{paths: []string{"/tmp/a"}}

	if err := c.Fetch(context.Background(), "/tmp/a", FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(c.FetchedPaths) != 1 || c.FetchedPaths[0] != "/tmp/a" {
		t.Errorf("FetchedPaths = %v", c.FetchedPaths)
	}
	select {
	case <-group.events.chanFor("a"):
	default:
		t.Error("Fetch did not produce completion event")
	}
}

func TestComponent_Fetch_ProducesEventOnFailure(t *testing.T) {
	group := newTestGroup()
	cfg := types.NodeConfig{Type: types.NodeHTTP, URL: "https://example.com/a.tar.gz"}
	c := NewComponent("a", cfg, "/tmp/a", group, nil)
	c.Fetcher = &fakeFetcher{err: errors.New("boom")}

	if err := c.Fetch(context.Background(), "/tmp/a", FetchOptions{}); err == nil {
		t.Fatal("expected error from failing fetcher")
	}
	select {
	case <-group.events.chanFor("a"):
	default:
		t.Error("Fetch did not produce completion event on failure")
	}
}

func TestComponent_Fetch_OnFetchedHookRuns(t *testing.T) {
	group := newTestGroup()
	cfg := types.NodeConfig{Type: types.NodeSolution, URL: "https://example.com/repo.git"}
	c := NewComponent("repo", cfg, "/tmp/repo", group, nil)
	c.Fetcher = &fakeFetcher{paths: []string{"/tmp/repo"}}

	hookRan := false
	c.OnFetched = func(_ context.Context, comp *Component) error {
		hookRan = true
		if comp.Name != "repo" {
			t.Errorf("hook received component %q, want \"repo\"", comp.Name)
		}
		return nil
	}

	if err := c.Fetch(context.Background(), "/tmp/repo", FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !hookRan {
		t.Error("OnFetched hook did not run")
	}
}

func TestComponent_Fetch_SkipsWhenUpToDateAndNotForced(t *testing.T) {
	group := newTestGroup()
	cfg := types.NodeConfig{Type: types.NodeHTTP, URL: "https://example.com/a.tar.gz", SHA256: "deadbeef"}
	stamps := map[string]string{"a": cfg.URL + "@" + cfg.SHA256}
	c := NewComponent("a", cfg, "/tmp/a", group, stamps)
	fetcher := &fakeFetcher{paths: []string{"/tmp/a"}}
	c.Fetcher = fetcher

	if err := c.Fetch(context.Background(), "/tmp/a", FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times, want 0 (should have been skipped)", fetcher.calls)
	}
}

func TestComponent_Fetch_ForceOverridesUpToDate(t *testing.T) {
	group := newTestGroup()
	cfg := types.NodeConfig{Type: types.NodeHTTP, URL: "https://example.com/a.tar.gz", SHA256: "deadbeef"}
	stamps := map[string]string{"a": cfg.URL + "@" + cfg.SHA256}
	c := NewComponent("a", cfg, "/tmp/a", group, stamps)
	fetcher := &fakeFetcher{paths: []string{"/tmp/a"}}
	c.Fetcher = fetcher

	if err := c.Fetch(context.Background(), "/tmp/a", FetchOptions{Force: true}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1 under --force", fetcher.calls)
	}
}
