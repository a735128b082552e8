package git

import "context"

// LFSInstall registers git-lfs smudge/clean filters for this working tree.
// Failure is non-fatal — the caller should warn and continue without LFS.
func (g *Git) LFSInstall(ctx context.Context) error {
	return g.RunSilent(ctx, "lfs", "install", "--local")
}

// LFSPull downloads the LFS objects referenced by the checked-out tree.
// Unlike LFSInstall, failure here is fatal: the working tree would otherwise
// contain LFS pointer files instead of real content.
func (g *Git) LFSPull(ctx context.Context) error {
	return g.RunSilent(ctx, "lfs", "pull")
}
