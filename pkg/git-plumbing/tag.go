package git

import "context"

// TagsAt returns all tags pointing at the given commit.
func (g *Git) TagsAt(ctx context.Context, commitHash string) ([]string, error) {
	lines, err := g.RunLines(ctx, "tag", "--points-at", commitHash)
	if err != nil {
		return nil, nil // no tags is not an error
	}
	return lines, nil
}

// CreateTag creates a lightweight tag at the current HEAD.
func (g *Git) CreateTag(ctx context.Context, name string) error {
	return g.RunSilent(ctx, "tag", name)
}

// DeleteTag removes a tag.
func (g *Git) DeleteTag(ctx context.Context, name string) error {
	return g.RunSilent(ctx, "tag", "-d", name)
}

// ListTags returns tags matching a pattern, sorted by creation date (newest first).
func (g *Git) ListTags(ctx context.Context, pattern string) ([]string, error) {
	args := []string{"tag", "-l", "--sort=-creatordate"}
	if pattern != "" {
		args = append(args, pattern)
	}
	return g.RunLines(ctx, args...)
}

// TagExists reports whether name exists, using existence as the test rather
// than verifying a signature (git tag -v checks signatures, which is not
// what "does this tag exist" means).
func (g *Git) TagExists(ctx context.Context, name string) (bool, error) {
	out, err := g.RunLines(ctx, "tag", "-l", name)
	if err != nil {
		return false, err
	}
	return len(out) > 0, nil
}

// TagForce creates or moves a tag to point at target (any object: commit,
// tree, or blob), overwriting any existing tag of the same name.
func (g *Git) TagForce(ctx context.Context, name, target string) error {
	return g.RunSilent(ctx, "tag", "-f", name, target)
}

// TagTarget returns the object hash a tag points to.
func (g *Git) TagTarget(ctx context.Context, name string) (string, error) {
	out, err := g.Run(ctx, "rev-parse", name+"^{}")
	if err != nil {
		return "", ErrRefNotFound
	}
	return out, nil
}
