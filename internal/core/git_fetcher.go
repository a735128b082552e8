package core

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/habitat-build/habitat/internal/types"
)

// GitFetcher acquires a git working tree at target_dir from the node's url
// at its pinned ref, applying the global object cache, sparse checkout,
// LFS, and patches along the way.
type GitFetcher struct {
	Name   string
	Config types.NodeConfig
	RC     *RuntimeContext

	// IsRoot marks the solution's own top-level node. Its branch, tag and
	// default-branch fetches take full history regardless of fetch_mode or
	// no_history; a commit pin is fetched at depth 1 (ResolveCommitRef) for
	// root and non-root nodes alike.
	IsRoot bool

	// PatchBaseDir resolves the node's relative patches globs; set by the
	// Solution to the directory holding the DEPS file that declared this node.
	PatchBaseDir string
}

func (f *GitFetcher) Fetch(ctx context.Context, targetDir string, opts FetchOptions) ([]string, error) {
	if IsLocalPath(f.Config.URL) {
		resolved, err := ResolveLocalURL(f.Config.URL, f.PatchBaseDir)
		if err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), err)
		}
		f.Config.URL = resolved
	}

	if err := ValidateSourceURL(f.Config.URL); err != nil {
		return nil, err
	}

	workDir := targetDir
	raw := opts.Raw
	if raw && !f.IsRoot {
		tmp, err := f.RC.FS.CreateTemp(filepath.Dir(targetDir), "habitat-raw-*")
		if err != nil {
			return nil, fmt.Errorf("creating raw-mode temp dir: %w", err)
		}
		workDir = tmp
	}
	if err := f.RC.FS.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}

	existed := f.isGitTree(workDir)
	if existed && !f.RC.Git.HasValidAlternates(workDir) {
		if f.RC.UI != nil {
			f.RC.UI.ShowWarning("Stale object cache", "node "+f.Name+"'s alternates reference a missing cache; re-initializing")
		}
		if err := f.RC.FS.RemoveAll(workDir); err != nil {
			return nil, err
		}
		if err := f.RC.FS.MkdirAll(workDir, 0o755); err != nil {
			return nil, err
		}
		existed = false
	}
	if !existed {
		if err := f.RC.Git.Init(ctx, workDir); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), err)
		}
	}

	authURL := f.authenticatedURL(opts)
	if existed {
		_ = f.RC.Git.SetRemoteURL(ctx, workDir, "origin", authURL)
	} else {
		if err := f.RC.Git.AddRemote(ctx, workDir, "origin", authURL); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), err)
		}
	}

	if len(f.Config.Paths) > 0 {
		if err := f.RC.Git.SparseCheckoutSet(ctx, workDir, f.Config.Paths); err != nil && f.RC.UI != nil {
			f.RC.UI.ShowWarning("Sparse checkout unavailable", "node "+f.Name+": "+err.Error())
		}
	} else if existed {
		if err := f.RC.Git.SparseCheckoutDisable(ctx, workDir); err != nil && f.RC.UI != nil {
			f.RC.UI.ShowWarning("Sparse checkout unavailable", "node "+f.Name+": "+err.Error())
		}
	}

	if opts.Force && existed {
		if raw {
			if err := f.RC.FS.RemoveAll(workDir); err != nil {
				return nil, err
			}
			if err := f.RC.FS.MkdirAll(workDir, 0o755); err != nil {
				return nil, err
			}
		} else if err := f.RC.Git.CleanAndReset(ctx, workDir); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), err)
		}
	}

	if !opts.DisableCache {
		if err := f.wireObjectCache(ctx, workDir, opts); err != nil && f.RC.UI != nil {
			f.RC.UI.ShowWarning("Object cache unavailable", "node "+f.Name+": "+err.Error())
		}
	}

	if boolValue(f.Config.EnableLFS) {
		if err := f.RC.Git.LFSInstall(ctx, workDir); err != nil && f.RC.UI != nil {
			f.RC.UI.ShowWarning("git-lfs install failed", "node "+f.Name+": "+err.Error())
		}
	}

	if _, err := f.resolveAndCheckout(ctx, workDir, targetDir, raw, existed, opts); err != nil {
		return nil, NewFetchError(f.Name, string(types.NodeGit), err)
	}

	if boolValue(f.Config.EnableLFS) {
		if err := f.RC.Git.LFSPull(ctx, workDir); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), fmt.Errorf("git lfs pull: %w", err))
		}
	}

	if len(f.Config.Patches) > 0 {
		if err := f.applyPatches(ctx, workDir); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeGit), err)
		}
	}

	if raw && workDir != targetDir {
		if err := f.RC.FS.RemoveAll(workDir); err != nil && f.RC.UI != nil {
			f.RC.UI.ShowWarning("Cleanup failed", "node "+f.Name+": could not remove temp dir "+workDir)
		}
	}

	return []string{targetDir}, nil
}

func (f *GitFetcher) isGitTree(dir string) bool {
	_, err := f.RC.FS.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// authenticatedURL rewrites the node's URL to embed options.git_auth
// (user:token) as HTTP basic-auth userinfo, if the URL is http(s) and auth
// was provided.
func (f *GitFetcher) authenticatedURL(opts FetchOptions) string {
	auth := opts.GitAuth
	if auth == "" {
		auth = f.RC.GitAuth
	}
	if auth == "" {
		return f.Config.URL
	}
	u, err := url.Parse(f.Config.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return f.Config.URL
	}
	parts := strings.SplitN(auth, ":", 2)
	if len(parts) == 2 {
		u.User = url.UserPassword(parts[0], parts[1])
	} else {
		u.User = url.User(parts[0])
	}
	return u.String()
}

func (f *GitFetcher) fetchDepth(opts FetchOptions) int {
	if f.IsRoot || f.Config.FetchMode == "full" {
		return 0
	}
	if opts.NoHistory {
		return 1
	}
	return 0
}

func cacheBasename(rawURL string) string {
	trimmed := strings.TrimSuffix(rawURL, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	return filepath.Base(trimmed)
}

func (f *GitFetcher) wireObjectCache(ctx context.Context, workDir string, opts FetchOptions) error {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = f.RC.CacheDir
	}
	if cacheDir == "" {
		return nil
	}
	sum := md5.Sum([]byte(f.Config.URL))
	cacheRepo := filepath.Join(cacheDir, "git", cacheBasename(f.Config.URL), fmt.Sprintf("%x", sum))

	if err := f.RC.Git.InitBare(ctx, cacheRepo); err != nil {
		return err
	}
	_ = f.RC.Git.AddRemote(ctx, cacheRepo, "origin", f.Config.URL)

	if f.Config.FetchMode == "full" {
		if err := f.RC.Git.FetchAll(ctx, cacheRepo); err != nil {
			return err
		}
	} else {
		ref := f.Config.Branch
		if ref == "" {
			ref = f.Config.Tag
		}
		if ref == "" {
			ref = f.Config.Commit
		}
		if ref != "" {
			if err := f.RC.Git.Fetch(ctx, cacheRepo, 0, ref); err != nil {
				return err
			}
		}
	}

	return f.RC.Git.AddAlternates(workDir, filepath.Join(cacheRepo, "objects"))
}

// resolveAndCheckout fetches the pinned ref (or refreshes the current one
// when none is pinned) and checks it out — or, in raw mode, exports it
// directly into targetDir via a --work-tree override, leaving workDir's own
// checkout untouched. Returns the ref string that was materialized.
func (f *GitFetcher) resolveAndCheckout(ctx context.Context, workDir, targetDir string, raw, existed bool, opts FetchOptions) (string, error) {
	depth := f.fetchDepth(opts)

	switch {
	case f.Config.Commit != "":
		sha, err := f.RC.Git.ResolveCommitRef(ctx, workDir, "origin", f.Config.Commit)
		if err != nil {
			return "", NewVersionError(f.Name, f.Config.Commit)
		}
		return sha, f.checkoutOrExport(ctx, workDir, targetDir, sha, raw)

	case f.Config.Branch != "":
		return f.Config.Branch, f.fetchAndCheckoutBranch(ctx, workDir, targetDir, f.Config.Branch, depth, raw)

	case f.Config.Tag != "":
		refspec := fmt.Sprintf("+refs/tags/%s:refs/tags/%s", f.Config.Tag, f.Config.Tag)
		if err := f.RC.Git.FetchRefspec(ctx, workDir, refspec, depth); err != nil {
			return "", NewVersionError(f.Name, f.Config.Tag)
		}
		return f.Config.Tag, f.checkoutOrExport(ctx, workDir, targetDir, f.Config.Tag, raw)

	default:
		if !existed {
			branch, err := f.RC.Git.ListRemoteHeadBranch(ctx, workDir, "origin")
			if err != nil {
				return "", err
			}
			return branch, f.fetchAndCheckoutBranch(ctx, workDir, targetDir, branch, depth, raw)
		}
		detached, err := f.RC.Git.IsDetached(ctx, workDir)
		if err != nil {
			return "", err
		}
		if detached {
			return "", nil
		}
		branch, err := f.RC.Git.CurrentBranch(ctx, workDir)
		if err != nil {
			return "", err
		}
		return branch, f.fetchAndCheckoutBranch(ctx, workDir, targetDir, branch, depth, raw)
	}
}

func (f *GitFetcher) fetchAndCheckoutBranch(ctx context.Context, workDir, targetDir, branch string, depth int, raw bool) error {
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branch, branch)
	if err := f.RC.Git.FetchRefspec(ctx, workDir, refspec, depth); err != nil {
		return NewVersionError(f.Name, branch)
	}
	if raw {
		return f.RC.Git.ExportWorkTree(ctx, workDir, targetDir, "refs/remotes/origin/"+branch)
	}
	return f.RC.Git.CheckoutTracking(ctx, workDir, branch, "refs/remotes/origin/"+branch)
}

func (f *GitFetcher) checkoutOrExport(ctx context.Context, workDir, targetDir, ref string, raw bool) error {
	if raw {
		return f.RC.Git.ExportWorkTree(ctx, workDir, targetDir, ref)
	}
	return f.RC.Git.Checkout(ctx, workDir, ref)
}

func (f *GitFetcher) applyPatches(ctx context.Context, workDir string) error {
	var patches []string
	for _, pattern := range f.Config.Patches {
		p := pattern
		if f.PatchBaseDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(f.PatchBaseDir, p)
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return fmt.Errorf("expanding patch glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			patches = append(patches, p)
			continue
		}
		patches = append(patches, matches...)
	}
	sort.Strings(patches)

	useAm := f.RC.Git.IsUserConfigured(ctx, workDir)
	for _, patch := range patches {
		var err error
		if useAm {
			err = f.RC.Git.Am(ctx, workDir, patch)
		} else {
			err = f.RC.Git.Apply(ctx, workDir, patch)
		}
		if err != nil {
			return fmt.Errorf("applying patch %s: %w", patch, err)
		}
	}
	return nil
}
