package core

import (
	"context"
	"path/filepath"
	"strings"
)

// LocalFetcher materializes a node that shares its source with an earlier
// sibling: rather than fetching again, it waits for the earlier node (the
// reference) to finish and then mirrors its fetched paths into this node's
// own target_dir, by symlink unless copying was requested.
type LocalFetcher struct {
	Reference     *Component
	ReferenceName string
	Group         *DependencyGroup
	FS            FileSystem
	UI            UICallback
	DisableLink   bool
}

func (f *LocalFetcher) Fetch(ctx context.Context, rootDir string, opts FetchOptions) ([]string, error) {
	if f.Group != nil {
		timeout := f.Group.requireTimeoutChan()
		if err := f.Group.events.wait(ctx, f.ReferenceName, f.ReferenceName, timeout); err != nil {
			return nil, err
		}
	}

	var materialized []string
	for _, srcPath := range f.Reference.FetchedPaths {
		rel, err := filepath.Rel(f.Reference.TargetDir, srcPath)
		if err != nil {
			rel = filepath.Base(srcPath)
		}
		dstPath := filepath.Join(rootDir, rel)

		if normalize(srcPath) == normalize(dstPath) {
			if f.UI != nil {
				f.UI.ShowWarning("Local fetch skipped", "source and destination are the same path: "+dstPath)
			}
			continue
		}

		if st, err := f.FS.Stat(dstPath); err == nil && st != nil {
			_ = f.FS.Remove(dstPath)
		}

		if f.DisableLink || opts.Clean {
			if _, err := f.FS.CopyDir(srcPath, dstPath); err != nil {
				if _, ferr := f.FS.CopyFile(srcPath, dstPath); ferr != nil {
					return nil, err
				}
			}
		} else {
			if err := f.FS.Symlink(srcPath, dstPath); err != nil {
				return nil, err
			}
		}
		materialized = append(materialized, dstPath)
	}
	return materialized, nil
}

func normalize(path string) string {
	return strings.TrimRight(filepath.Clean(path), string(filepath.Separator))
}
