package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs a source with its payload or retrieval error.
type Result struct {
	Source  string
	Payload *Payload
	Err     error
}

// FetchAll retrieves sources concurrently, at most maxConcurrency at a time
// (0 = unlimited). Results keep the input order, and a failed source does not
// stop the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []string, maxConcurrency int) []Result {
	results := make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}

	for i, source := range sources {
		g.Go(func() error {
			payload, err := f.Fetch(gctx, source)
			results[i] = Result{Source: source, Payload: payload, Err: err}
			return nil
		})
	}

	// Workers never return an error; Wait only joins them.
	_ = g.Wait()

	return results
}
