package core

import "context"

// DummyFetcher handles nodes whose type the engine does not recognize. It
// never fails: it logs a warning through the UI callback and reports no
// fetched paths, so an unrecognized node is inert rather than fatal.
type DummyFetcher struct {
	Name string
	UI   UICallback
}

func (f *DummyFetcher) Fetch(_ context.Context, _ string, _ FetchOptions) ([]string, error) {
	if f.UI != nil {
		f.UI.ShowWarning("Unrecognized node type", "node "+f.Name+" has no matching fetcher and will be skipped")
	}
	return nil, nil
}
