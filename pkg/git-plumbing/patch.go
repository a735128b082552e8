package git

import (
	"context"
	"os/exec"
)

// Am applies a patch file preserving authorship (git am). Requires a
// configured user.name/user.email; the caller should fall back to Apply
// otherwise.
func (g *Git) Am(ctx context.Context, patchPath string) error {
	cmd := exec.CommandContext(ctx, "git", "am", patchPath)
	cmd.Dir = g.Dir
	cmd.Env = sanitizedEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &GitError{Args: []string{"am", patchPath}, Stderr: string(out), Err: err}
	}
	return nil
}

// Apply applies a patch file to the working tree and index without creating
// a commit (git apply --index), discarding authorship information.
func (g *Git) Apply(ctx context.Context, patchPath string) error {
	return g.RunSilent(ctx, "apply", "--index", patchPath)
}

// IsUserConfigured reports whether both user.name and user.email are set,
// which Am requires to construct a commit author.
func (g *Git) IsUserConfigured(ctx context.Context) bool {
	name, err := g.ConfigGet(ctx, "user.name")
	if err != nil || name == "" {
		return false
	}
	email, err := g.ConfigGet(ctx, "user.email")
	if err != nil || email == "" {
		return false
	}
	return true
}
