package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-reportgen/pkg/model"
)

const (
	// DefaultTitle is used when no title option is supplied.
	DefaultTitle = "Report Generator API"
	// DefaultVersion is the API version advertised by default.
	DefaultVersion = "1.0.0"

	openAPIVersion = "3.0.3"
)

// Option customises the generated document.
type Option func(*config)

type config struct {
	title       string
	version     string
	description string
	servers     []string
}

// WithTitle sets info.title.
func WithTitle(title string) Option {
	return func(c *config) {
		if title != "" {
			c.title = title
		}
	}
}

// WithVersion sets info.version.
func WithVersion(version string) Option {
	return func(c *config) {
		if version != "" {
			c.version = version
		}
	}
}

// WithDescription sets info.description.
func WithDescription(description string) Option {
	return func(c *config) {
		c.description = description
	}
}

// WithServer appends a server URL.
func WithServer(url string) Option {
	return func(c *config) {
		if url != "" {
			c.servers = append(c.servers, url)
		}
	}
}

// Build assembles the document for the supplied templates. Templates are
// emitted in id order so the output is stable.
func Build(records []model.TemplateRecord, options ...Option) *openapi3.T {
	cfg := config{title: DefaultTitle, version: DefaultVersion}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:       cfg.title,
			Version:     cfg.version,
			Description: cfg.description,
		},
		Paths: openapi3.NewPaths(),
	}
	for _, url := range cfg.servers {
		doc.AddServer(&openapi3.Server{URL: url})
	}

	sorted := append([]model.TemplateRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ids := make([]any, 0, len(sorted))
	for _, record := range sorted {
		ids = append(ids, record.ID)
	}

	addCommonPaths(doc, ids)
	for _, record := range sorted {
		addTemplatePaths(doc, record)
	}
	return doc
}

// Validate checks the document against the OpenAPI 3 rules. Field
// placeholders are advisory so examples are not validated.
func Validate(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return fmt.Errorf("openapi: validate document: %w", err)
	}
	return nil
}

// JSON builds and encodes the document.
func JSON(records []model.TemplateRecord, options ...Option) ([]byte, error) {
	raw, err := Build(records, options...).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openapi: encode document: %w", err)
	}
	return raw, nil
}

func addCommonPaths(doc *openapi3.T, ids []any) {
	pageSchema := openapi3.NewStringSchema()
	if len(ids) > 0 {
		pageSchema.WithEnum(ids...)
	}
	pageID := openapi3.NewPathParameter("pageID").WithSchema(pageSchema)
	pageQuery := openapi3.NewQueryParameter("pageId").WithRequired(true).WithSchema(pageSchema)
	modeQuery := openapi3.NewQueryParameter("mode").WithSchema(openapi3.NewStringSchema().WithEnum("save", "autosave"))
	reportID := openapi3.NewPathParameter("reportID").WithSchema(openapi3.NewStringSchema().WithFormat("uuid"))
	freeValues := openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())

	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: operation("health", "Liveness probe", "system", nil, nil,
			jsonResponse(http.StatusOK, "Service is up", openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema()))),
	})
	doc.Paths.Set("/templates", &openapi3.PathItem{
		Get: operation("listTemplates", "List report templates", "templates", nil, nil,
			jsonResponse(http.StatusOK, "Template metadata", openapi3.NewArraySchema().WithItems(metadataSchema()))),
	})
	doc.Paths.Set("/templates/{pageID}", &openapi3.PathItem{
		Get: operation("getTemplate", "Fetch a template definition", "templates", []*openapi3.Parameter{pageID}, nil,
			jsonResponse(http.StatusOK, "Template definition", openapi3.NewObjectSchema()),
			errorResponse(http.StatusNotFound, "Unknown template")),
	})
	doc.Paths.Set("/reports/{reportID}/values", &openapi3.PathItem{
		Get: operation("getReportValues", "Load stored values", "reports", []*openapi3.Parameter{reportID}, nil,
			jsonResponse(http.StatusOK, "Stored values", freeValues),
			errorResponse(http.StatusNotFound, "Unknown report")),
		Put: operation("putReportValues", "Store values", "reports", []*openapi3.Parameter{reportID, pageQuery, modeQuery}, freeValues,
			emptyResponse(http.StatusNoContent, "Values stored"),
			emptyResponse(http.StatusAccepted, "Values scheduled for autosave"),
			errorResponse(http.StatusBadRequest, "Malformed body")),
	})
	doc.Paths.Set("/openapi.json", &openapi3.PathItem{
		Get: operation("openapi", "This document", "system", nil, nil,
			jsonResponse(http.StatusOK, "OpenAPI document", openapi3.NewObjectSchema())),
	})
}

func addTemplatePaths(doc *openapi3.T, record model.TemplateRecord) {
	values := ValuesSchema(record)
	base := "/pages/" + record.ID
	tag := "page:" + record.ID

	doc.Paths.Set(base+"/validate", &openapi3.PathItem{
		Post: operation("validate_"+record.ID, "Validate "+record.Title+" values", tag, nil, values,
			jsonResponse(http.StatusOK, "Validation result", resultSchema())),
	})
	doc.Paths.Set(base+"/preview", &openapi3.PathItem{
		Post: operation("preview_"+record.ID, "Render "+record.Title+" as HTML", tag, previewParams(), values,
			contentResponse(http.StatusOK, "Rendered report with inline validation messages", "text/html", openapi3.NewStringSchema())),
	})
	doc.Paths.Set(base+"/export", &openapi3.PathItem{
		Post: operation("export_"+record.ID, "Export "+record.Title+" as PDF", tag, exportParams(), values,
			contentResponse(http.StatusOK, "PDF document", "application/pdf", openapi3.NewStringSchema().WithFormat("binary")),
			jsonResponse(http.StatusUnprocessableEntity, "Validation failed", resultSchema())),
	})
}

func previewParams() []*openapi3.Parameter {
	return []*openapi3.Parameter{
		openapi3.NewQueryParameter("renderer").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("theme").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("variant").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("groups").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("standalone").WithSchema(openapi3.NewBoolSchema()),
	}
}

func exportParams() []*openapi3.Parameter {
	return []*openapi3.Parameter{
		openapi3.NewQueryParameter("theme").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("variant").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("draft").WithSchema(openapi3.NewBoolSchema()),
	}
}

func operation(id, summary, tag string, params []*openapi3.Parameter, body *openapi3.Schema, responses ...openapi3.NewResponsesOption) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{tag},
		Responses:   openapi3.NewResponses(responses...),
	}
	for _, param := range params {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: param})
	}
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(body),
		}
	}
	return op
}

func jsonResponse(status int, description string, schema *openapi3.Schema) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema),
	})
}

func contentResponse(status int, description, mediaType string, schema *openapi3.Schema) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithSchema(schema, []string{mediaType})),
	})
}

func emptyResponse(status int, description string) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(description),
	})
}

func errorResponse(status int, description string) openapi3.NewResponsesOption {
	return jsonResponse(status, description, openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema()))
}

func metadataSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("category", openapi3.NewStringSchema()).
		WithProperty("version", openapi3.NewStringSchema()).
		WithProperty("fieldCount", openapi3.NewIntegerSchema()).
		WithProperty("complexity", openapi3.NewStringSchema().WithEnum(
			string(model.ComplexitySimple),
			string(model.ComplexityModerate),
			string(model.ComplexityComplex),
		))
}

func resultSchema() *openapi3.Schema {
	issue := openapi3.NewObjectSchema().
		WithProperty("field", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("isValid", openapi3.NewBoolSchema()).
		WithProperty("errors", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("issues", openapi3.NewArraySchema().WithItems(issue))
}
