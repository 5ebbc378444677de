package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/render"
	rendertemplate "github.com/goliatone/go-reportgen/pkg/render/template"
)

// Name is the registry name of the HTML renderer.
const Name = "html"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	policy           *bluemonday.Policy
	stylesheet       string
	inlineCSS        bool
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. It must
// provide report.tpl, section.tpl and field.tpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithPolicy overrides the sanitiser applied to multiline text.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithStylesheet links an external stylesheet in standalone documents. A
// theme asset named "stylesheet" takes precedence.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		cfg.stylesheet = href
	}
}

// WithoutDefaultStyles drops the embedded CSS from standalone documents.
func WithoutDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineCSS = false
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer turns a report page into HTML, one section per field group.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	policy     *bluemonday.Policy
	stylesheet string
	css        string
	logger     *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		inlineCSS:  true,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := rendertemplate.New(
			rendertemplate.WithFS(cfg.templateFS),
			rendertemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	policy := cfg.policy
	if policy == nil {
		policy = multilinePolicy()
	}

	r := &Renderer{
		templates:  renderer,
		policy:     policy,
		stylesheet: cfg.stylesheet,
		logger:     cfg.logger,
	}
	if cfg.inlineCSS {
		r.css = defaultStylesheet()
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	page = render.ApplySubset(page, options.Subset)
	errs := render.MapErrors(page.Entry.Fields, options.Errors)
	data := r.context(page, errs, options)

	result, err := r.templates.RenderTemplate("report", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	r.logger.Debug("rendered report page",
		zap.String("page_id", page.Entry.PageID),
		zap.Int("sections", len(data["sections"].([]section))),
		zap.Int("bytes", len(result)),
	)
	return []byte(result), nil
}

func (r *Renderer) context(page render.Page, errs render.ErrorMapping, options render.RenderOptions) map[string]any {
	meta := page.Entry.Metadata
	category := meta.Category
	if category == "" {
		category = "general"
	}

	data := map[string]any{
		"standalone":  options.Standalone,
		"title":       meta.Title,
		"description": meta.Description,
		"category":    category,
		"page_id":     page.Entry.PageID,
		"css":         r.css,
		"stylesheet":  r.stylesheet,
		"page_errors": errs.Page,
		"sections":    r.sections(page, errs.Fields),
	}

	if cfg := options.Theme; cfg != nil {
		data["theme"] = cfg.Theme
		data["variant"] = cfg.Variant
		data["theme_style"] = render.CSSVarsStyle(cfg.CSSVars)
		if cfg.AssetURL != nil {
			if href := cfg.AssetURL("stylesheet"); href != "" {
				data["stylesheet"] = href
			}
		}
	}
	return data
}

func multilinePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}
