package reportgen

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/html"
	"github.com/goliatone/go-reportgen/pkg/validation"
	"github.com/goliatone/go-reportgen/pkg/viewmodel"
)

// Values aliases model.Values for callers importing only the root package.
type Values = model.Values

// RenderOptions carries per-request errors, subsets and theme config.
type RenderOptions = render.RenderOptions

// FieldSubset aliases render.FieldSubset for partial rendering by group.
type FieldSubset = render.FieldSubset

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(options...)
}

// BuildViewModel projects values onto fields as the nested group/key shape.
func BuildViewModel(values Values, fields []model.FieldDefinition) viewmodel.Grouped {
	return viewmodel.BuildGrouped(values, fields)
}

// ValidateValues checks every field and collects all messages.
func ValidateValues(values Values, fields []model.FieldDefinition) validation.Result {
	return validation.Validate(values, fields)
}

// RenderHTML renders a built-in template (or a generic page for unknown ids)
// with the default HTML renderer.
func RenderHTML(ctx context.Context, pageID string, values Values, options ...orchestrator.Option) ([]byte, error) {
	templates, err := catalog.NewWithBuiltin()
	if err != nil {
		return nil, err
	}
	opts := append([]orchestrator.Option{orchestrator.WithTemplateSource(templates)}, options...)
	gen, err := orchestrator.New(opts...)
	if err != nil {
		return nil, err
	}
	result, err := gen.Preview(ctx, orchestrator.Request{PageID: pageID, Values: values})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// EmbeddedTemplates exposes the built-in HTML report templates so callers can
// copy or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// BuiltinCatalog exposes the template documents shipped with the module.
func BuiltinCatalog() fs.FS {
	return catalog.Builtin()
}
