package viewmodel

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// ViewModel is the flat projection of a value store keyed by field id. Scalar
// kinds map to strings while collection kinds map to decoded JSON values.
type ViewModel map[string]any

// Grouped is the canonical nested projection: group name to field key to
// value. Presentation consumes this shape for every template.
type Grouped map[string]map[string]any

// Option customises a Builder.
type Option func(*Builder)

// WithLogger routes collection parse diagnostics to the supplied logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder projects value stores onto view-models. It keeps no mutable state,
// so a single instance can serve concurrent callers.
type Builder struct {
	logger *zap.Logger
}

// New constructs a Builder. Without options diagnostics are discarded.
func New(options ...Option) *Builder {
	b := &Builder{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

var defaultBuilder = New()

// Build projects values onto fields using a diagnostics-free builder.
func Build(values model.Values, fields []model.FieldDefinition) ViewModel {
	return defaultBuilder.Build(values, fields)
}

// BuildGrouped builds and nests in one call.
func BuildGrouped(values model.Values, fields []model.FieldDefinition) Grouped {
	return defaultBuilder.BuildGrouped(values, fields)
}

// Build returns one entry per field. Absent scalar values become "" and
// collection values that are absent or malformed become an empty array.
func (b *Builder) Build(values model.Values, fields []model.FieldDefinition) ViewModel {
	vm := make(ViewModel, len(fields))
	for _, field := range fields {
		vm[field.ID] = b.coerce(field, values.Get(field.ID))
	}
	return vm
}

// BuildGrouped returns the nested shape for the supplied fields.
func (b *Builder) BuildGrouped(values model.Values, fields []model.FieldDefinition) Grouped {
	return Group(b.Build(values, fields), fields)
}

func (b *Builder) coerce(field model.FieldDefinition, raw string) any {
	if !field.Type.IsCollection() {
		return raw
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if raw != "" {
			b.logger.Debug("viewmodel: collection value is not valid JSON",
				zap.String("field", field.ID),
				zap.String("type", string(field.Type)),
				zap.Error(err),
			)
		}
		return []any{}
	}
	return parsed
}

// Group nests a flat view-model by the group segment of each field id. Fields
// missing from the flat map receive the same defaults Build would assign.
func Group(flat ViewModel, fields []model.FieldDefinition) Grouped {
	grouped := make(Grouped)
	for _, field := range fields {
		group, key := model.SplitID(field.ID)
		bucket, ok := grouped[group]
		if !ok {
			bucket = make(map[string]any)
			grouped[group] = bucket
		}
		value, present := flat[field.ID]
		if !present {
			value = emptyValue(field.Type)
		}
		bucket[key] = value
	}
	return grouped
}

// GroupKeys nests a view-model without a schema by splitting every key on
// its first dot.
func GroupKeys(flat ViewModel) Grouped {
	grouped := make(Grouped)
	for id, value := range flat {
		group, key := model.SplitID(id)
		bucket, ok := grouped[group]
		if !ok {
			bucket = make(map[string]any)
			grouped[group] = bucket
		}
		bucket[key] = value
	}
	return grouped
}

// Groups returns group names in first-appearance order so renderers can lay
// sections out the way the template author declared them.
func Groups(fields []model.FieldDefinition) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		group := field.Group()
		if _, ok := seen[group]; ok {
			continue
		}
		seen[group] = struct{}{}
		out = append(out, group)
	}
	return out
}

// FromValues lifts raw values into a view-model unchanged. It backs the
// identity fallback used when no schema is available.
func FromValues(values model.Values) ViewModel {
	vm := make(ViewModel, len(values))
	for key, value := range values {
		vm[key] = value
	}
	return vm
}

func emptyValue(fieldType model.FieldType) any {
	if fieldType.IsCollection() {
		return []any{}
	}
	return ""
}
