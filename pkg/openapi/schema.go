package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// ValuesSchema describes the value store of a template as it travels over
// the wire: an object of string properties keyed by field id. Collection
// kinds carry JSON text and are flagged with format "json".
func ValuesSchema(record model.TemplateRecord) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Title = record.Title
	schema.Description = record.Description
	schema.AdditionalProperties = openapi3.AdditionalProperties{Schema: openapi3.NewSchemaRef("", openapi3.NewStringSchema())}

	for _, field := range record.Fields {
		schema.WithProperty(field.ID, fieldSchema(field))
		if field.Required {
			schema.Required = append(schema.Required, field.ID)
		}
	}
	return schema
}

// ViewSchema describes the grouped view-model of a template: group name to
// field key to value, with collection kinds decoded into arrays.
func ViewSchema(record model.TemplateRecord) *openapi3.Schema {
	groups := make(map[string]*openapi3.Schema)
	var order []string
	for _, field := range record.Fields {
		group, key := model.SplitID(field.ID)
		bucket, ok := groups[group]
		if !ok {
			bucket = openapi3.NewObjectSchema()
			groups[group] = bucket
			order = append(order, group)
		}
		bucket.WithProperty(key, viewFieldSchema(field))
		bucket.Required = append(bucket.Required, key)
	}

	schema := openapi3.NewObjectSchema()
	schema.Title = record.Title
	for _, group := range order {
		schema.WithProperty(group, groups[group])
		schema.Required = append(schema.Required, group)
	}
	return schema
}

func fieldSchema(field model.FieldDefinition) *openapi3.Schema {
	schema := openapi3.NewStringSchema()
	schema.Title = field.DisplayLabel()
	schema.Description = field.HelpText
	if field.Placeholder != "" {
		schema.Example = field.Placeholder
	}

	switch field.Type {
	case model.FieldTypeDate:
		schema.Format = "date"
	case model.FieldTypeLink, model.FieldTypeImage:
		schema.Format = "uri"
	case model.FieldTypeMultiline:
		schema.Extensions = map[string]any{"x-multiline": true}
	}
	if field.Type.IsCollection() {
		schema.Format = "json"
		schema.Extensions = map[string]any{"x-items": collectionItems(field.Type)}
		return schema
	}

	if rules := field.Validation; !rules.Empty() {
		if rules.Pattern != "" {
			schema.WithPattern(rules.Pattern)
		}
		if rules.MinLength > 0 {
			schema.WithMinLength(int64(rules.MinLength))
		}
		if rules.MaxLength > 0 {
			schema.WithMaxLength(int64(rules.MaxLength))
		}
	}
	if field.Required && schema.MinLength == 0 {
		schema.WithMinLength(1)
	}
	return schema
}

func viewFieldSchema(field model.FieldDefinition) *openapi3.Schema {
	if !field.Type.IsCollection() {
		schema := openapi3.NewStringSchema()
		schema.Title = field.DisplayLabel()
		return schema
	}
	schema := openapi3.NewArraySchema().WithItems(collectionItemSchema(field.Type))
	schema.Title = field.DisplayLabel()
	return schema
}

func collectionItems(fieldType model.FieldType) string {
	if fieldType == model.FieldTypeAuthors {
		return "string"
	}
	return "object"
}

// collectionItemSchema mirrors what the report view expects inside each
// collection: author names, attachment records and content sections.
func collectionItemSchema(fieldType model.FieldType) *openapi3.Schema {
	switch fieldType {
	case model.FieldTypeAuthors:
		return openapi3.NewStringSchema()
	case model.FieldTypeAttachments:
		return openapi3.NewObjectSchema().
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("url", openapi3.NewStringSchema().WithFormat("uri"))
	default:
		return openapi3.NewObjectSchema().
			WithProperty("title", openapi3.NewStringSchema()).
			WithProperty("body", openapi3.NewStringSchema())
	}
}
