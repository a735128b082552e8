package git

import "context"

// SparseCheckoutSet restricts the working tree to the given path patterns
// using cone-mode sparse-checkout. Older git versions lack the feature;
// callers should treat a returned error as non-fatal (warn and continue).
func (g *Git) SparseCheckoutSet(ctx context.Context, paths []string) error {
	args := append([]string{"sparse-checkout", "set"}, paths...)
	return g.RunSilent(ctx, args...)
}

// SparseCheckoutDisable removes any sparse-checkout restriction, restoring
// a full working tree.
func (g *Git) SparseCheckoutDisable(ctx context.Context) error {
	return g.RunSilent(ctx, "sparse-checkout", "disable")
}
