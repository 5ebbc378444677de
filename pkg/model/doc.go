// Package model defines the report template schema and value store shared by
// the view-model builder, validation, registry and renderers. A template is a
// flat list of FieldDefinitions whose dotted identifiers encode grouping
// (`header.project` belongs to the `header` group; identifiers without a dot
// fall into the implicit `general` group). Values are always strings: scalar
// kinds keep plain text while collection kinds (attachments, authors,
// contents) carry a JSON encoded array of objects.
package model
