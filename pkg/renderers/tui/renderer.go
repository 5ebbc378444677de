package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

// Renderer implements render.Renderer for terminal sessions: it prompts for
// every field of the page, re-asking until the answer passes field
// validation, and returns the filled value store.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	logger       *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	if r.outputFormat == OutputFormatPrettyText {
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// Render prompts for the page and serialises the collected values.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	values, err := r.Fill(ctx, page, opts)
	if err != nil {
		return nil, err
	}
	return r.serialize(render.ApplySubset(page, opts.Subset).Entry.Fields, values)
}

// Fill runs the prompt loop and returns the collected value store. Values
// already present on the page are offered as defaults.
func (r *Renderer) Fill(ctx context.Context, page render.Page, opts render.RenderOptions) (model.Values, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	state := NewState(page.Values, opts.Errors)
	page = render.ApplySubset(page, opts.Subset)

	fields := page.Entry.Fields
	if len(fields) == 0 {
		fields = schemalessFields(page.Values)
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	if title := page.Entry.Metadata.Title; title != "" {
		if err := r.info(ctx, title); err != nil {
			return nil, err
		}
	}

	for _, field := range fields {
		if err := r.promptField(ctx, field, state); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("filled report page",
		zap.String("page_id", page.Entry.PageID),
		zap.Int("fields", len(fields)),
		zap.Int("values", len(state.Values())),
	)
	return state.Values(), nil
}

func (r *Renderer) promptField(ctx context.Context, field model.FieldDefinition, state *State) error {
	for _, message := range state.ErrorsFor(field.ID) {
		if err := r.errorf(ctx, message); err != nil {
			return err
		}
	}

	switch field.Type {
	case model.FieldTypeAuthors:
		return r.promptAuthors(ctx, field, state)
	case model.FieldTypeAttachments, model.FieldTypeContents:
		return r.promptValidated(ctx, field, state, func(def string) (string, error) {
			return r.driver.TextArea(ctx, TextAreaConfig{
				Message: message(field) + " (JSON)",
				Default: def,
				Help:    help(field, `Enter a JSON array, e.g. [{"name":"plan.pdf"}]`),
			})
		})
	case model.FieldTypeMultiline:
		return r.promptValidated(ctx, field, state, func(def string) (string, error) {
			return r.driver.TextArea(ctx, TextAreaConfig{Message: message(field), Default: def, Help: help(field, "")})
		})
	default:
		return r.promptValidated(ctx, field, state, func(def string) (string, error) {
			return r.driver.Input(ctx, InputConfig{Message: message(field), Default: def, Help: help(field, hintFor(field.Type))})
		})
	}
}

// promptValidated re-asks until the answer passes validation.
func (r *Renderer) promptValidated(ctx context.Context, field model.FieldDefinition, state *State, ask func(def string) (string, error)) error {
	def := state.Value(field.ID)
	for {
		answer, err := ask(def)
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)

		problems := validation.ValidateField(field, answer)
		if len(problems) == 0 {
			state.Set(field.ID, answer)
			return nil
		}
		for _, problem := range problems {
			if err := r.errorf(ctx, problem); err != nil {
				return err
			}
		}
		def = answer
	}
}

// promptAuthors collects names one at a time until an empty answer. The
// list is stored as a JSON array of strings.
func (r *Renderer) promptAuthors(ctx context.Context, field model.FieldDefinition, state *State) error {
	existing := state.List(field.ID)
	if len(existing) > 0 {
		keep, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("%s: keep %s?", field.DisplayLabel(), strings.Join(existing, ", ")),
			Default: true,
		})
		if err != nil {
			return err
		}
		if keep {
			return nil
		}
	}

	for {
		var names []string
		for {
			name, err := r.driver.Input(ctx, InputConfig{
				Message: fmt.Sprintf("%s #%d", field.DisplayLabel(), len(names)+1),
				Help:    "Leave empty to finish",
			})
			if err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			if name == "" {
				break
			}
			names = append(names, name)
		}

		encoded := ""
		if len(names) > 0 {
			raw, err := json.Marshal(names)
			if err != nil {
				return fmt.Errorf("tui: encode %s: %w", field.ID, err)
			}
			encoded = string(raw)
		}

		problems := validation.ValidateField(field, encoded)
		if len(problems) == 0 {
			state.Set(field.ID, encoded)
			return nil
		}
		for _, problem := range problems {
			if err := r.errorf(ctx, problem); err != nil {
				return err
			}
		}
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) errorf(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func (r *Renderer) serialize(fields []model.FieldDefinition, values model.Values) ([]byte, error) {
	if r.outputFormat != OutputFormatPrettyText {
		if values == nil {
			values = model.Values{}
		}
		return json.MarshalIndent(values, "", "  ")
	}

	if len(fields) == 0 {
		fields = schemalessFields(values)
	}
	var b strings.Builder
	for _, field := range fields {
		value := values.Get(field.ID)
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", field.DisplayLabel(), value)
	}
	return []byte(b.String()), nil
}

func schemalessFields(values model.Values) []model.FieldDefinition {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fields := make([]model.FieldDefinition, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, model.FieldDefinition{ID: id, Label: id, Type: model.FieldTypeText})
	}
	return fields
}

func message(field model.FieldDefinition) string {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}
	return label
}

func help(field model.FieldDefinition, fallback string) string {
	if field.HelpText != "" {
		return field.HelpText
	}
	if field.Placeholder != "" {
		return field.Placeholder
	}
	return fallback
}

func hintFor(fieldType model.FieldType) string {
	switch fieldType {
	case model.FieldTypeDate:
		return "Date, e.g. 2026-03-14"
	case model.FieldTypeLink:
		return "URL, e.g. https://example.com"
	case model.FieldTypeImage:
		return "Image URL"
	default:
		return ""
	}
}
