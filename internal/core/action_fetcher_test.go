package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/habitat-build/habitat/internal/types"
)

func TestActionFetcher_RunsShellCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := types.NodeConfig{
		Type:     types.NodeAction,
		Commands: []types.ActionCommand{{Shell: "echo hello > out.txt"}},
	}
	f := &ActionFetcher{Name: "gen", Config: cfg, RootDir: dir}

	paths, err := f.Fetch(context.Background(), dir, FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if paths != nil {
		t.Errorf("Fetch returned paths %v, want nil (action nodes never report paths)", paths)
	}

	out, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("expected out.txt to exist: %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("out.txt = %q, want %q", out, "hello\n")
	}
}

func TestActionFetcher_RunsArgvCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := types.NodeConfig{
		Type:     types.NodeAction,
		Commands: []types.ActionCommand{{Argv: []string{"touch", "marker.txt"}}},
	}
	f := &ActionFetcher{Name: "gen", Config: cfg, RootDir: dir}

	if _, err := f.Fetch(context.Background(), dir, FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker.txt")); err != nil {
		t.Errorf("expected marker.txt to exist: %v", err)
	}
}

func TestActionFetcher_CwdOverride(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := types.NodeConfig{
		Type:     types.NodeAction,
		Cwd:      "sub",
		Commands: []types.ActionCommand{{Argv: []string{"touch", "in-sub.txt"}}},
	}
	f := &ActionFetcher{Name: "gen", Config: cfg, RootDir: dir}

	if _, err := f.Fetch(context.Background(), dir, FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sub, "in-sub.txt")); err != nil {
		t.Errorf("expected in-sub.txt under cwd override: %v", err)
	}
}

func TestActionFetcher_EnvIsPassedToCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := types.NodeConfig{
		Type:     types.NodeAction,
		Env:      map[string]string{"HABITAT_TEST_VAR": "ok"},
		Commands: []types.ActionCommand{{Shell: `echo "$HABITAT_TEST_VAR" > env.txt`}},
	}
	f := &ActionFetcher{Name: "gen", Config: cfg, RootDir: dir}

	if _, err := f.Fetch(context.Background(), dir, FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	if err != nil {
		t.Fatalf("reading env.txt: %v", err)
	}
	if string(out) != "ok\n" {
		t.Errorf("env.txt = %q, want %q", out, "ok\n")
	}
}

func TestActionFetcher_FailingCommandReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfg := types.NodeConfig{
		Type:     types.NodeAction,
		Commands: []types.ActionCommand{{Shell: "exit 1"}},
	}
	f := &ActionFetcher{Name: "gen", Config: cfg, RootDir: dir, UI: SilentUICallback{}}

	if _, err := f.Fetch(context.Background(), dir, FetchOptions{}); err == nil {
		t.Fatal("expected error from failing shell command")
	}
}
