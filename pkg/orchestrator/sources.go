package orchestrator

import (
	"context"
	"errors"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
)

// TemplateSource looks up stored template records. Implementations report a
// miss with an error wrapping catalog.ErrNotFound.
type TemplateSource interface {
	Template(ctx context.Context, id string) (*model.TemplateRecord, error)
}

// Chain tries each source in order and returns the first hit.
func Chain(sources ...TemplateSource) TemplateSource {
	return chain(sources)
}

type chain []TemplateSource

func (c chain) Template(ctx context.Context, id string) (*model.TemplateRecord, error) {
	for _, source := range c {
		if source == nil {
			continue
		}
		record, err := source.Template(ctx, id)
		if err == nil && record != nil {
			return record, nil
		}
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
	}
	return nil, catalog.ErrNotFound
}
