package pdf

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result pairs a document name with its PDF bytes.
type Result struct {
	Name string
	PDF  []byte
}

// ExportAll prints docs concurrently, at most limit at a time (GOMAXPROCS
// when limit <= 0). Results keep the input order. The first error cancels
// the remaining work.
func (g *Generator) ExportAll(ctx context.Context, docs []Document, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(docs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, doc := range docs {
		group.Go(func() error {
			out, err := g.Generate(gctx, doc)
			if err != nil {
				return err
			}
			results[i] = Result{Name: doc.Name, PDF: out}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
