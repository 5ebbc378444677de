package render

import (
	"context"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/registry"
	"github.com/goliatone/go-reportgen/pkg/viewmodel"
)

// Renderer converts a resolved report page into a byte representation (HTML,
// JSON, terminal output, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error)
}

// Page is everything a renderer needs to present one report page.
type Page struct {
	Entry  registry.Entry
	Values model.Values
	// Grouped is the nested view-model built from Values for Entry.
	Grouped viewmodel.Grouped
}

// NewPage resolves the nested view-model for entry and values.
func NewPage(entry registry.Entry, values model.Values) Page {
	return Page{
		Entry:   entry,
		Values:  values,
		Grouped: entry.Grouped(values),
	}
}

// Groups returns the page's group names in presentation order: declaration
// order when the entry has a schema, sorted otherwise.
func (p Page) Groups() []string {
	if len(p.Entry.Fields) > 0 {
		return viewmodel.Groups(p.Entry.Fields)
	}
	return sortedKeys(p.Grouped)
}
