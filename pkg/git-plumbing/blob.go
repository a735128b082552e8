package git

import "context"

// HashObjectWrite writes data into the repository's object database as a
// blob and returns its SHA, without touching the working tree or index.
// Used to persist the entries cache as a blob reachable only via a tag.
func (g *Git) HashObjectWrite(ctx context.Context, data []byte) (string, error) {
	cmd, err := g.runStdin(ctx, data, "hash-object", "-w", "--stdin")
	if err != nil {
		return "", err
	}
	return cmd, nil
}

// CatFileBlob reads back the contents of a blob by its SHA.
func (g *Git) CatFileBlob(ctx context.Context, sha string) ([]byte, error) {
	return g.runStdout(ctx, "cat-file", "blob", sha)
}
