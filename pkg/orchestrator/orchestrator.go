package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/pdf"
	"github.com/goliatone/go-reportgen/pkg/registry"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/html"
	"github.com/goliatone/go-reportgen/pkg/validation"
	"github.com/goliatone/go-reportgen/pkg/viewmodel"
)

// DraftWatermark is stamped on exports that bypass validation.
const DraftWatermark = "DRAFT"

var (
	// ErrNoExporter is returned by Export when no PDF exporter is configured.
	ErrNoExporter = errors.New("orchestrator: pdf exporter not configured")
	// ErrPageID is returned when a request names no page.
	ErrPageID = errors.New("orchestrator: page id is required")
)

// ValidationError is returned by Export when the values do not validate.
type ValidationError struct {
	PageID string
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("orchestrator: page %q has %d validation error(s): %s",
		e.PageID, len(e.Result.Errors), strings.Join(e.Result.Errors, "; "))
}

// Exporter prints rendered HTML to PDF. *pdf.Generator satisfies it.
type Exporter interface {
	Generate(ctx context.Context, doc pdf.Document) ([]byte, error)
}

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithRegistry sets the template registry used to resolve page ids.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithRenderers sets the renderer registry.
func WithRenderers(r *render.Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.renderers = r
		}
	}
}

// WithTemplateSource sets where stored templates are looked up.
func WithTemplateSource(source TemplateSource) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithExporter enables Export.
func WithExporter(exporter Exporter) Option {
	return func(o *Orchestrator) {
		o.exporter = exporter
	}
}

// WithThemeSelector resolves Request.Theme/Variant into renderer config.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themes = selector
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator runs the report pipeline. Without options it resolves every
// page generically and renders with the built-in HTML renderer.
type Orchestrator struct {
	registry  *registry.Registry
	renderers *render.Registry
	source    TemplateSource
	exporter  Exporter
	themes    theme.ThemeSelector
	logger    *zap.Logger
}

// New constructs an Orchestrator.
func New(options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	if o.registry == nil {
		o.registry = registry.New(registry.WithLogger(o.logger))
	}
	if o.renderers == nil {
		renderer, err := html.New(html.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: default renderer: %w", err)
		}
		renderers, err := render.NewRegistry(renderer)
		if err != nil {
			return nil, err
		}
		o.renderers = renderers
	}
	return o, nil
}

// Request describes one pass through the pipeline.
type Request struct {
	PageID string
	Values model.Values
	// Renderer names the renderer. Empty selects the registry default.
	Renderer string
	// Theme and Variant are resolved through the theme selector when
	// RenderOptions.Theme is not already set.
	Theme   string
	Variant string
	// RenderOptions carries caller errors and subsets. Validation messages
	// are merged into Errors.
	RenderOptions render.RenderOptions
	// Draft lets Export proceed with invalid values and stamps a draft
	// watermark.
	Draft bool
	// Vars feed PDF header/footer substitution.
	Vars map[string]string
}

// Result is the outcome of Preview.
type Result struct {
	Entry       registry.Entry
	View        viewmodel.Grouped
	Validation  validation.Result
	Output      []byte
	ContentType string
}

// ExportResult is the outcome of Export.
type ExportResult struct {
	Result
	PDF []byte
}

// Resolve looks up the stored template for pageID and resolves the entry.
// Unknown ids resolve to a generic entry.
func (o *Orchestrator) Resolve(ctx context.Context, pageID string) (registry.Entry, error) {
	if strings.TrimSpace(pageID) == "" {
		return registry.Entry{}, ErrPageID
	}
	var stored *model.TemplateRecord
	if o.source != nil && !o.registry.Has(pageID) {
		record, err := o.source.Template(ctx, pageID)
		switch {
		case err == nil:
			stored = record
		case errors.Is(err, catalog.ErrNotFound):
			o.logger.Debug("no stored template", zap.String("page_id", pageID))
		default:
			return registry.Entry{}, fmt.Errorf("orchestrator: load template %s: %w", pageID, err)
		}
	}
	return o.registry.Resolve(pageID, stored), nil
}

// Validate resolves the page and validates values against its fields.
func (o *Orchestrator) Validate(ctx context.Context, pageID string, values model.Values) (validation.Result, registry.Entry, error) {
	entry, err := o.Resolve(ctx, pageID)
	if err != nil {
		return validation.Result{}, registry.Entry{}, err
	}
	return validation.Validate(values, entry.Fields), entry, nil
}

// Preview resolves, validates and renders. Validation failures are surfaced
// inline through RenderOptions.Errors rather than as an error.
func (o *Orchestrator) Preview(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, entry, err := o.Validate(ctx, req.PageID, req.Values)
	if err != nil {
		return nil, err
	}

	renderer, err := o.renderers.Get(req.Renderer)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", req.Renderer, err)
	}

	opts := req.RenderOptions
	opts.Errors = mergeErrors(opts.Errors, result.ByField())
	if opts.Theme == nil && o.themes != nil {
		cfg, err := render.ResolveTheme(o.themes, req.Theme, req.Variant)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
		}
		opts.Theme = cfg
	}

	page := render.NewPage(entry, req.Values)
	output, err := renderer.Render(ctx, page, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render %s: %w", req.PageID, err)
	}

	o.logger.Debug("report previewed",
		zap.String("page_id", req.PageID),
		zap.String("renderer", renderer.Name()),
		zap.Bool("valid", result.Valid),
		zap.Bool("generic", entry.Generic),
	)
	return &Result{
		Entry:       entry,
		View:        page.Grouped,
		Validation:  result,
		Output:      output,
		ContentType: renderer.ContentType(),
	}, nil
}

// Prepare renders standalone HTML and assembles the PDF document for req
// without printing it. Invalid values fail with *ValidationError unless the
// request is a draft.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (pdf.Document, *Result, error) {
	req.Renderer = html.Name
	req.RenderOptions.Standalone = true
	preview, err := o.Preview(ctx, req)
	if err != nil {
		return pdf.Document{}, nil, err
	}
	if !preview.Validation.Valid && !req.Draft {
		return pdf.Document{}, nil, &ValidationError{PageID: req.PageID, Result: preview.Validation}
	}

	doc := pdf.Document{
		Name:     req.PageID,
		HTML:     string(preview.Output),
		Metadata: preview.Entry.Metadata,
		Vars:     req.Vars,
	}
	if req.Draft {
		layout := pdf.LayoutFor(preview.Entry.Metadata.Category)
		layout.Watermark = pdf.Watermark{Text: DraftWatermark, Opacity: 0.15}
		doc.Layout = &layout
	}
	return doc, preview, nil
}

// Export prepares req and prints it with the category layout.
func (o *Orchestrator) Export(ctx context.Context, req Request) (*ExportResult, error) {
	if o.exporter == nil {
		return nil, ErrNoExporter
	}

	doc, preview, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := o.exporter.Generate(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: export %s: %w", req.PageID, err)
	}

	o.logger.Info("report exported",
		zap.String("page_id", req.PageID),
		zap.String("category", preview.Entry.Metadata.Category),
		zap.Bool("draft", req.Draft),
		zap.Int("bytes", len(out)),
	)
	return &ExportResult{Result: *preview, PDF: out}, nil
}

func mergeErrors(base, extra map[string][]string) map[string][]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string][]string, len(base)+len(extra))
	for key, messages := range base {
		out[key] = render.MergeMessages(nil, messages...)
	}
	for key, messages := range extra {
		out[key] = render.MergeMessages(out[key], messages...)
	}
	return out
}
