package model

import "strings"

// FieldType is the closed set of field kinds a report template can declare.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeMultiline   FieldType = "multiline"
	FieldTypeLink        FieldType = "link"
	FieldTypeDate        FieldType = "date"
	FieldTypeBadge       FieldType = "badge"
	FieldTypeImage       FieldType = "image"
	FieldTypeAttachments FieldType = "attachments"
	FieldTypeAuthors     FieldType = "authors"
	FieldTypeContents    FieldType = "contents"
)

// DefaultGroup holds fields whose identifier carries no namespace.
const DefaultGroup = "general"

// FieldTypes lists every known field kind in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeMultiline,
		FieldTypeLink,
		FieldTypeDate,
		FieldTypeBadge,
		FieldTypeImage,
		FieldTypeAttachments,
		FieldTypeAuthors,
		FieldTypeContents,
	}
}

// Known reports whether the type belongs to the closed set.
func (t FieldType) Known() bool {
	for _, candidate := range FieldTypes() {
		if t == candidate {
			return true
		}
	}
	return false
}

// IsCollection reports whether values of this kind are JSON encoded arrays.
func (t FieldType) IsCollection() bool {
	switch t {
	case FieldTypeAttachments, FieldTypeAuthors, FieldTypeContents:
		return true
	default:
		return false
	}
}

// Validation carries optional constraints checked when a value is present.
// Zero lengths mean "no constraint".
type Validation struct {
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Empty reports whether no constraint is configured.
func (v *Validation) Empty() bool {
	return v == nil || (v.Pattern == "" && v.MinLength == 0 && v.MaxLength == 0)
}

// FieldDefinition describes one input of a report template.
type FieldDefinition struct {
	ID          string      `json:"id" yaml:"id"`
	Label       string      `json:"label" yaml:"label"`
	Type        FieldType   `json:"type" yaml:"type"`
	Placeholder string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string      `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Validation  *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// Group returns the namespace segment of the field identifier.
func (f FieldDefinition) Group() string {
	group, _ := SplitID(f.ID)
	return group
}

// Key returns the identifier without its group prefix.
func (f FieldDefinition) Key() string {
	_, key := SplitID(f.ID)
	return key
}

// DisplayLabel falls back to the identifier when no label was supplied.
func (f FieldDefinition) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.ID
}

// SplitID splits a dotted identifier on its first dot. Identifiers without a
// dot (or with an empty leading segment) belong to DefaultGroup.
func SplitID(id string) (group, key string) {
	head, tail, found := strings.Cut(id, ".")
	if !found || head == "" {
		return DefaultGroup, id
	}
	return head, tail
}

// Values maps field identifiers to their stored string representation.
type Values map[string]string

// Get returns the stored value or the empty string when the key is absent.
func (v Values) Get(id string) string {
	if v == nil {
		return ""
	}
	return v[id]
}

// Clone returns a shallow copy safe for independent mutation.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}
