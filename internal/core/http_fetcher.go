package core

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"

	"github.com/habitat-build/habitat/internal/types"
)

// chunkSize is the size of each parallel range request HttpFetcher issues
// against a server that advertises Accept-Ranges: bytes.
const chunkSize = 20 * 1024 * 1024

// HTTPFetcher downloads an artifact from url, verifies its digest, and
// optionally decompresses it under target_dir.
type HTTPFetcher struct {
	Name   string
	Config types.NodeConfig
	RC     *RuntimeContext
}

func (f *HTTPFetcher) Fetch(ctx context.Context, targetDir string, opts FetchOptions) ([]string, error) {
	if _, err := f.RC.FS.Stat(targetDir); err == nil {
		if !opts.Force {
			return []string{targetDir}, nil
		}
		if err := f.RC.FS.RemoveAll(targetDir); err != nil {
			return nil, err
		}
	}
	if err := f.RC.FS.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return nil, err
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = f.RC.CacheDir
	}
	cachePath := filepath.Join(cacheDir, "objects", convertURLToCachePath(f.Config.URL))

	tmpDir, err := f.RC.FS.CreateTemp("", "habitat-http-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.RC.FS.RemoveAll(tmpDir) }()
	archivePath := filepath.Join(tmpDir, filepath.Base(f.Config.URL))

	fromCache := false
	if !opts.DisableCache {
		if _, err := f.RC.FS.Stat(cachePath); err == nil {
			if _, err := f.RC.FS.CopyFile(cachePath, archivePath); err != nil {
				return nil, err
			}
			fromCache = true
		}
	}

	if !fromCache {
		if err := f.download(ctx, archivePath); err != nil {
			return nil, NewFetchError(f.Name, string(types.NodeHTTP), err)
		}
	}

	if f.Config.SHA256 != "" {
		actual, err := sha256File(archivePath)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(actual, f.Config.SHA256) {
			return nil, NewIntegrityError(f.Name, f.Config.SHA256, actual)
		}
	}

	if !fromCache && !opts.DisableCache {
		if err := f.RC.FS.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
			return nil, err
		}
		_, _ = f.RC.FS.CopyFile(archivePath, cachePath)
	}

	if !boolValue(f.Config.Decompress) {
		if err := f.RC.FS.MkdirAll(targetDir, 0o755); err != nil {
			return nil, err
		}
		if _, err := f.RC.FS.CopyFile(archivePath, filepath.Join(targetDir, filepath.Base(f.Config.URL))); err != nil {
			return nil, err
		}
		return []string{targetDir}, nil
	}

	extractDir := filepath.Join(tmpDir, "extracted")
	if err := f.RC.FS.MkdirAll(extractDir, 0o755); err != nil {
		return nil, err
	}
	if err := extractArchive(archivePath, extractDir, f.Config.Paths); err != nil {
		return nil, NewFetchError(f.Name, string(types.NodeHTTP), err)
	}

	src := flattenSingleEntry(extractDir)
	if err := f.RC.FS.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return nil, err
	}
	if _, err := f.RC.FS.CopyDir(src, targetDir); err != nil {
		return nil, err
	}

	return []string{targetDir}, nil
}

// convertURLToCachePath turns a URL into a filesystem-safe relative path
// keyed by host and path, dropping the scheme and query string.
func convertURLToCachePath(rawURL string) string {
	without := rawURL
	if i := strings.Index(without, "://"); i >= 0 {
		without = without[i+3:]
	}
	if i := strings.IndexAny(without, "?#"); i >= 0 {
		without = without[:i]
	}
	return filepath.FromSlash(without)
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// download performs a HEAD probe and, when the server advertises
// Accept-Ranges and a known Content-Length, fetches the body in parallel
// 20 MiB range chunks bounded by the runtime's HTTP semaphore; otherwise it
// falls back to a single GET.
func (f *HTTPFetcher) download(ctx context.Context, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.Config.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	var length int64 = -1
	rangesOK := false
	if err == nil {
		rangesOK = resp.Header.Get("Accept-Ranges") == "bytes"
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if n, perr := strconv.ParseInt(cl, 10, 64); perr == nil {
				length = n
			}
		}
		_ = resp.Body.Close()
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if !rangesOK || length <= 0 {
		return f.downloadWhole(ctx, out)
	}
	return f.downloadChunked(ctx, out, length)
}

func (f *HTTPFetcher) downloadWhole(ctx context.Context, out *os.File) error {
	if f.RC.HTTPSemaphore != nil {
		if err := f.RC.HTTPSemaphore.Acquire(ctx, 1); err != nil {
			return err
		}
		defer f.RC.HTTPSemaphore.Release(1)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Config.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: unexpected status %s", f.Config.URL, resp.Status)
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func (f *HTTPFetcher) downloadChunked(ctx context.Context, out *os.File, length int64) error {
	if err := out.Truncate(length); err != nil {
		return err
	}
	type chunk struct{ start, end int64 }
	var chunks []chunk
	for start := int64(0); start < length; start += chunkSize {
		end := start + chunkSize - 1
		if end >= length {
			end = length - 1
		}
		chunks = append(chunks, chunk{start, end})
	}

	errCh := make(chan error, len(chunks))
	for _, c := range chunks {
		c := c
		go func() {
			errCh <- f.fetchChunk(ctx, out, c.start, c.end)
		}()
	}
	var firstErr error
	for range chunks {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *HTTPFetcher) fetchChunk(ctx context.Context, out *os.File, start, end int64) error {
	if f.RC.HTTPSemaphore != nil {
		if err := f.RC.HTTPSemaphore.Acquire(ctx, 1); err != nil {
			return err
		}
		defer f.RC.HTTPSemaphore.Release(1)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Config.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("range request bytes=%d-%d: unexpected status %s", start, end, resp.Status)
	}
	_, err = out.Seek(start, io.SeekStart)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

// extractArchive picks an extraction strategy by file extension and writes
// matching entries (or every entry when paths is empty) under destDir,
// preserving symlinks and mode bits.
func extractArchive(archivePath, destDir string, paths []string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"), strings.HasSuffix(lower, ".aar"):
		return extractZip(archivePath, destDir, paths)
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return extractTarXZ(archivePath, destDir, paths)
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return extractTarGz(archivePath, destDir, paths)
	case strings.HasSuffix(lower, ".tbz2"), strings.HasSuffix(lower, ".tar.bz2"):
		return extractTarBz2(archivePath, destDir, paths)
	case strings.HasSuffix(lower, ".tar"):
		f, err := os.Open(archivePath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		return extractTar(tar.NewReader(f), destDir, paths)
	default:
		return fmt.Errorf("unrecognized archive extension: %s", archivePath)
	}
}

func extractZip(archivePath, destDir string, paths []string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for _, zf := range r.File {
		if len(paths) > 0 && !MatchesExclude(zf.Name, paths) {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(zf.Name))
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		mode := zf.Mode()
		if mode&os.ModeSymlink != 0 {
			rc, err := zf.Open()
			if err != nil {
				return err
			}
			target, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return err
			}
			if err := os.Symlink(string(target), dest); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		if err := writeFile(dest, rc, mode); err != nil {
			_ = rc.Close()
			return err
		}
		_ = rc.Close()
	}
	return nil
}

func extractTarGz(archivePath, destDir string, paths []string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer func() { _ = gz.Close() }()
	return extractTar(tar.NewReader(gz), destDir, paths)
}

func extractTarBz2(archivePath, destDir string, paths []string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return extractTar(tar.NewReader(bzip2.NewReader(f)), destDir, paths)
}

func extractTarXZ(archivePath, destDir string, paths []string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	xr, err := xz.NewReader(f)
	if err != nil {
		return err
	}
	return extractTar(tar.NewReader(xr), destDir, paths)
}

func extractTar(tr *tar.Reader, destDir string, paths []string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(paths) > 0 && !MatchesExclude(hdr.Name, paths) {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := writeFile(dest, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		}
	}
}

func writeFile(dest string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	_, err = io.Copy(out, r)
	return err
}

// flattenSingleEntry returns dir itself, unless it contains exactly one
// entry, in which case that entry's path is returned — this matches an
// archive whose contents are rooted under a single top-level directory.
func flattenSingleEntry(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
