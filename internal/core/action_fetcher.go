package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/habitat-build/habitat/internal/types"
)

// ActionFetcher executes a user-declared sequence of commands against the
// node's cwd. It is never considered up-to-date: every sync re-runs it.
type ActionFetcher struct {
	Name    string
	Config  types.NodeConfig
	RootDir string
	UI      UICallback
}

func (f *ActionFetcher) Fetch(ctx context.Context, targetDir string, _ FetchOptions) ([]string, error) {
	cwd := f.RootDir
	if f.Config.Cwd != "" {
		if filepath.IsAbs(f.Config.Cwd) {
			cwd = f.Config.Cwd
		} else {
			cwd = filepath.Join(f.RootDir, f.Config.Cwd)
		}
	}

	env := os.Environ()
	for k, v := range f.Config.Env {
		env = append(env, k+"="+v)
	}

	for _, step := range f.Config.Commands {
		cmd, err := f.buildCommand(ctx, step)
		if err != nil {
			return nil, err
		}
		cmd.Dir = cwd
		cmd.Env = env

		var out strings.Builder
		cmd.Stdout = &out
		cmd.Stderr = &out

		if err := cmd.Run(); err != nil {
			if f.UI != nil {
				f.UI.ShowError("Action command failed", out.String())
			}
			return nil, fmt.Errorf("action %q step failed: %w\noutput:\n%s", f.Name, err, out.String())
		}
	}

	return nil, nil
}

func (f *ActionFetcher) buildCommand(ctx context.Context, step types.ActionCommand) (*exec.Cmd, error) {
	if step.Shell != "" {
		return exec.CommandContext(ctx, "sh", "-c", step.Shell), nil
	}
	if len(step.Argv) == 0 {
		return nil, fmt.Errorf("action %q has a command with neither shell nor argv set", f.Name)
	}
	return exec.CommandContext(ctx, step.Argv[0], step.Argv[1:]...), nil
}
