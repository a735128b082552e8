package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	git "github.com/EmundoT/git-plumbing"

	"github.com/habitat-build/habitat/internal/types"
)

// GitClient is the subset of git operations the engine needs, abstracted so
// fetchers can be tested against a fake instead of a real git binary.
type GitClient interface {
	Init(ctx context.Context, dir string) error
	InitBare(ctx context.Context, dir string) error
	AddRemote(ctx context.Context, dir, name, url string) error
	SetRemoteURL(ctx context.Context, dir, name, url string) error
	Clone(ctx context.Context, dir, url string, opts *types.CloneOptions) error
	Fetch(ctx context.Context, dir string, depth int, ref string) error
	FetchRefspec(ctx context.Context, dir, refspec string, depth int) error
	FetchAll(ctx context.Context, dir string) error
	Checkout(ctx context.Context, dir, ref string) error
	CheckoutTracking(ctx context.Context, dir, name, start string) error
	HEAD(ctx context.Context, dir string) (string, error)
	ResolveRef(ctx context.Context, dir, ref string) (string, error)
	ResolveCommitRef(ctx context.Context, dir, remote, commit string) (string, error)
	ListRemoteHeadBranch(ctx context.Context, dir, remote string) (string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	IsDetached(ctx context.Context, dir string) (bool, error)
	IsClean(ctx context.Context, dir string) (bool, error)
	ListTree(ctx context.Context, dir, ref, subdir string) ([]string, error)
	CleanAndReset(ctx context.Context, dir string) error
	ExportWorkTree(ctx context.Context, dir, workTree, ref string) error

	AddAlternates(workTree, objectsDir string) error
	HasValidAlternates(workTree string) bool

	SparseCheckoutSet(ctx context.Context, dir string, paths []string) error
	SparseCheckoutDisable(ctx context.Context, dir string) error

	LFSInstall(ctx context.Context, dir string) error
	LFSPull(ctx context.Context, dir string) error

	Am(ctx context.Context, dir, patchPath string) error
	Apply(ctx context.Context, dir, patchPath string) error
	IsUserConfigured(ctx context.Context, dir string) bool

	TagExists(ctx context.Context, dir, name string) (bool, error)
	TagForce(ctx context.Context, dir, name, target string) error
	TagTarget(ctx context.Context, dir, name string) (string, error)
	HashObjectWrite(ctx context.Context, dir string, data []byte) (string, error)
	CatFileBlob(ctx context.Context, dir, sha string) ([]byte, error)
}

// SystemGitClient implements GitClient using system git commands via
// pkg/git-plumbing.
type SystemGitClient struct {
	verbose bool
}

// NewSystemGitClient creates a new SystemGitClient.
func NewSystemGitClient(verbose bool) *SystemGitClient {
	return &SystemGitClient{verbose: verbose}
}

// gitFor creates a git-plumbing Git instance for the given directory.
// Cheap allocation (single struct, no I/O) — required because the engine
// passes dir per-call while git-plumbing stores it on the struct.
func (g *SystemGitClient) gitFor(dir string) *git.Git {
	return &git.Git{Dir: dir, Verbose: g.verbose}
}

func (g *SystemGitClient) Init(ctx context.Context, dir string) error {
	return g.gitFor(dir).Init(ctx)
}

func (g *SystemGitClient) InitBare(ctx context.Context, dir string) error {
	return git.InitBare(ctx, dir)
}

func (g *SystemGitClient) AddRemote(ctx context.Context, dir, name, remoteURL string) error {
	return g.gitFor(dir).AddRemote(ctx, name, remoteURL)
}

func (g *SystemGitClient) SetRemoteURL(ctx context.Context, dir, name, remoteURL string) error {
	return g.gitFor(dir).SetRemoteURL(ctx, name, remoteURL)
}

func (g *SystemGitClient) Clone(ctx context.Context, dir, cloneURL string, opts *types.CloneOptions) error {
	var plumbingOpts *git.CloneOpts
	if opts != nil {
		plumbingOpts = &git.CloneOpts{
			Filter:     opts.Filter,
			NoCheckout: opts.NoCheckout,
			Depth:      opts.Depth,
		}
	}
	return g.gitFor(dir).Clone(ctx, cloneURL, plumbingOpts)
}

func (g *SystemGitClient) Fetch(ctx context.Context, dir string, depth int, ref string) error {
	return g.gitFor(dir).Fetch(ctx, "origin", ref, depth)
}

func (g *SystemGitClient) FetchRefspec(ctx context.Context, dir, refspec string, depth int) error {
	return g.gitFor(dir).FetchRefspec(ctx, "origin", refspec, depth)
}

func (g *SystemGitClient) FetchAll(ctx context.Context, dir string) error {
	return g.gitFor(dir).FetchAll(ctx, "origin")
}

func (g *SystemGitClient) Checkout(ctx context.Context, dir, ref string) error {
	return g.gitFor(dir).Checkout(ctx, ref)
}

func (g *SystemGitClient) CheckoutTracking(ctx context.Context, dir, name, start string) error {
	return g.gitFor(dir).CheckoutTracking(ctx, name, start)
}

func (g *SystemGitClient) HEAD(ctx context.Context, dir string) (string, error) {
	return g.gitFor(dir).HEAD(ctx)
}

func (g *SystemGitClient) ResolveRef(ctx context.Context, dir, ref string) (string, error) {
	return g.gitFor(dir).ResolveRef(ctx, ref)
}

func (g *SystemGitClient) ResolveCommitRef(ctx context.Context, dir, remote, commit string) (string, error) {
	return g.gitFor(dir).ResolveCommitRef(ctx, remote, commit)
}

func (g *SystemGitClient) ListRemoteHeadBranch(ctx context.Context, dir, remote string) (string, error) {
	return g.gitFor(dir).ListRemoteHeadBranch(ctx, remote)
}

func (g *SystemGitClient) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return g.gitFor(dir).CurrentBranch(ctx)
}

func (g *SystemGitClient) IsDetached(ctx context.Context, dir string) (bool, error) {
	return g.gitFor(dir).IsDetached(ctx)
}

func (g *SystemGitClient) IsClean(ctx context.Context, dir string) (bool, error) {
	return g.gitFor(dir).IsClean(ctx)
}

func (g *SystemGitClient) ListTree(ctx context.Context, dir, ref, subdir string) ([]string, error) {
	return g.gitFor(dir).ListTree(ctx, ref, subdir)
}

func (g *SystemGitClient) CleanAndReset(ctx context.Context, dir string) error {
	return g.gitFor(dir).CleanAndReset(ctx)
}

func (g *SystemGitClient) ExportWorkTree(ctx context.Context, dir, workTree, ref string) error {
	return g.gitFor(dir).ExportWorkTree(ctx, workTree, ref)
}

func (g *SystemGitClient) AddAlternates(workTree, objectsDir string) error {
	return git.AddAlternates(workTree, objectsDir)
}

func (g *SystemGitClient) HasValidAlternates(workTree string) bool {
	return git.HasValidAlternates(workTree)
}

func (g *SystemGitClient) SparseCheckoutSet(ctx context.Context, dir string, paths []string) error {
	return g.gitFor(dir).SparseCheckoutSet(ctx, paths)
}

func (g *SystemGitClient) SparseCheckoutDisable(ctx context.Context, dir string) error {
	return g.gitFor(dir).SparseCheckoutDisable(ctx)
}

func (g *SystemGitClient) LFSInstall(ctx context.Context, dir string) error {
	return g.gitFor(dir).LFSInstall(ctx)
}

func (g *SystemGitClient) LFSPull(ctx context.Context, dir string) error {
	return g.gitFor(dir).LFSPull(ctx)
}

func (g *SystemGitClient) Am(ctx context.Context, dir, patchPath string) error {
	return g.gitFor(dir).Am(ctx, patchPath)
}

func (g *SystemGitClient) Apply(ctx context.Context, dir, patchPath string) error {
	return g.gitFor(dir).Apply(ctx, patchPath)
}

func (g *SystemGitClient) IsUserConfigured(ctx context.Context, dir string) bool {
	return g.gitFor(dir).IsUserConfigured(ctx)
}

func (g *SystemGitClient) TagExists(ctx context.Context, dir, name string) (bool, error) {
	return g.gitFor(dir).TagExists(ctx, name)
}

func (g *SystemGitClient) TagForce(ctx context.Context, dir, name, target string) error {
	return g.gitFor(dir).TagForce(ctx, name, target)
}

func (g *SystemGitClient) TagTarget(ctx context.Context, dir, name string) (string, error) {
	return g.gitFor(dir).TagTarget(ctx, name)
}

func (g *SystemGitClient) HashObjectWrite(ctx context.Context, dir string, data []byte) (string, error) {
	return g.gitFor(dir).HashObjectWrite(ctx, data)
}

func (g *SystemGitClient) CatFileBlob(ctx context.Context, dir, sha string) ([]byte, error) {
	return g.gitFor(dir).CatFileBlob(ctx, sha)
}

// allowedURLSchemes lists URL schemes safe for git clone operations. file://
// is included deliberately: a DEPS/solution entry pinning a local checkout
// is a supported source, not a path into the fetch pipeline from untrusted
// input (the URL still comes from a DEPS/solution file the caller controls).
var allowedURLSchemes = []string{
	"https", "http", "ssh", "git", "git+ssh", "file",
}

// ValidateSourceURL checks that a repository URL uses a safe scheme.
// Rejects ftp:// and other non-git schemes that could use insecure
// protocols or aren't valid git transports.
func ValidateSourceURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("source URL must not be empty")
	}

	lower := strings.ToLower(rawURL)

	// SCP-style SSH URLs (git@host:owner/repo) — allowed
	if strings.Contains(rawURL, "@") && !strings.Contains(rawURL, "://") {
		return nil
	}

	if idx := strings.Index(lower, ":"); idx > 0 && !strings.Contains(rawURL, "://") {
		switch lower[:idx] {
		case "javascript", "data", "vbscript":
			return fmt.Errorf("URL scheme %q is not allowed: not a valid git URL", lower[:idx])
		}
	}

	if !strings.Contains(rawURL, "://") {
		return nil // bare hostname or relative path; allow for compat
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	for _, allowed := range allowedURLSchemes {
		if scheme == allowed {
			return nil
		}
	}

	switch scheme {
	case "ftp", "ftps":
		return fmt.Errorf("URL scheme %q is not allowed: FTP is insecure and not supported for git operations", scheme)
	default:
		return fmt.Errorf("URL scheme %q is not allowed: use https://, ssh://, git://, or file:// instead", scheme)
	}
}

// SanitizeURL removes embedded credentials from a URL for safe logging.
// SCP-style URLs (git@host:path) are returned unchanged because "git" is the
// username, not a secret.
func SanitizeURL(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if parsed.User != nil {
		parsed.User = nil
		return parsed.String()
	}
	return rawURL
}
