package git

import (
	"context"
	"fmt"
	"strings"
)

// CloneOpts configures a clone operation.
type CloneOpts struct {
	Filter     string // e.g., "blob:none" for treeless clone
	NoCheckout bool
	Depth      int
}

// Init initializes a new git repository.
func (g *Git) Init(ctx context.Context) error {
	return g.RunSilent(ctx, "init")
}

// AddRemote adds a named remote.
func (g *Git) AddRemote(ctx context.Context, name, url string) error {
	return g.RunSilent(ctx, "remote", "add", name, url)
}

// Clone clones a repository into this directory.
func (g *Git) Clone(ctx context.Context, url string, opts *CloneOpts) error {
	args := []string{"clone"}
	if opts != nil {
		if opts.Filter != "" {
			args = append(args, "--filter="+opts.Filter)
		}
		if opts.NoCheckout {
			args = append(args, "--no-checkout")
		}
		if opts.Depth > 0 {
			args = append(args, "--depth", fmt.Sprintf("%d", opts.Depth))
		}
	}
	args = append(args, url, ".")
	return g.RunSilent(ctx, args...)
}

// Fetch fetches from a remote with optional depth.
func (g *Git) Fetch(ctx context.Context, remote, ref string, depth int) error {
	args := []string{"fetch"}
	if depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", depth))
	}
	args = append(args, remote, ref)
	return g.RunSilent(ctx, args...)
}

// FetchAll fetches all refs from a remote.
func (g *Git) FetchAll(ctx context.Context, remote string) error {
	return g.RunSilent(ctx, "fetch", remote)
}

// Checkout checks out a ref (branch, tag, or commit hash).
func (g *Git) Checkout(ctx context.Context, ref string) error {
	return g.RunSilent(ctx, "checkout", ref)
}

// FetchRefspec fetches a single explicit refspec from remote, optionally
// shallow. Used for branch/tag pins, which fetch into a remote-tracking ref
// rather than FETCH_HEAD so a later checkout -B can track it.
func (g *Git) FetchRefspec(ctx context.Context, remote, refspec string, depth int) error {
	args := []string{"fetch"}
	if depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", depth), "--no-tags")
	}
	args = append(args, remote, refspec)
	return g.RunSilent(ctx, args...)
}

// CheckoutTracking creates or resets local branch name to start and checks
// it out, mirroring `git checkout -B <name> <start>`.
func (g *Git) CheckoutTracking(ctx context.Context, name, start string) error {
	return g.RunSilent(ctx, "checkout", "-B", name, start)
}

// SetRemoteURL rewrites the URL of an existing remote (used to inject
// authentication into the origin URL after AddRemote).
func (g *Git) SetRemoteURL(ctx context.Context, name, url string) error {
	return g.RunSilent(ctx, "remote", "set-url", name, url)
}

// ListRemoteHeadBranch returns the default branch name reported by
// `git remote show origin` (the "HEAD branch:" line). Used when a git node
// pins no ref at all on first clone.
func (g *Git) ListRemoteHeadBranch(ctx context.Context, remote string) (string, error) {
	out, err := g.Run(ctx, "remote", "show", remote)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "HEAD branch:"); ok {
			branch := strings.TrimSpace(rest)
			if branch == "(unknown)" {
				return "", fmt.Errorf("remote %s has no discoverable default branch", remote)
			}
			return branch, nil
		}
	}
	return "", fmt.Errorf("could not determine default branch for remote %s", remote)
}

// ResolveCommitRef fetches the given commit-ish from remote (shallow, depth
// 1) and returns the full 40-hex SHA FETCH_HEAD resolved to. The commit is
// passed to git fetch as given: an abbreviated SHA is not expanded first, and
// when the fetch fails the error is returned with no fallback fetch.
func (g *Git) ResolveCommitRef(ctx context.Context, remote, commit string) (string, error) {
	if err := g.RunSilent(ctx, "fetch", "--depth", "1", remote, commit); err != nil {
		return "", err
	}
	return g.ResolveRef(ctx, "FETCH_HEAD")
}

// CleanAndReset discards untracked files and any local modifications,
// returning the working tree to exactly what HEAD records.
func (g *Git) CleanAndReset(ctx context.Context) error {
	if err := g.RunSilent(ctx, "clean", "-fd"); err != nil {
		return err
	}
	return g.RunSilent(ctx, "reset", "--hard")
}

// ExportWorkTree checks ref's tree out into workTree without leaving any
// other trace of the commit (no branch, no updated index outside of the
// checkout). Used by raw mode, which wants the files only.
func (g *Git) ExportWorkTree(ctx context.Context, workTree, ref string) error {
	return g.RunSilent(ctx, "--work-tree="+workTree, "checkout", ref, "--", ".")
}
