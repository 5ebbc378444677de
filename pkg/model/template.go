package model

// Complexity buckets templates by field count for catalog display.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ComplexityFor derives a bucket from the number of fields in a template.
func ComplexityFor(fieldCount int) Complexity {
	switch {
	case fieldCount <= 5:
		return ComplexitySimple
	case fieldCount <= 15:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// TemplateRecord is the stored schema of one report template.
type TemplateRecord struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string            `json:"category,omitempty" yaml:"category,omitempty"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Complexity  Complexity        `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// Field returns the definition with the supplied identifier.
func (t TemplateRecord) Field(id string) (FieldDefinition, bool) {
	for _, field := range t.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// Metadata describes a template for listings and PDF headers.
type Metadata struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Version     string     `json:"version,omitempty"`
	FieldCount  int        `json:"fieldCount"`
	Complexity  Complexity `json:"complexity"`
}

// Metadata projects the descriptive parts of the record. Complexity is
// derived from the field count when the record leaves it unset.
func (t TemplateRecord) Metadata() Metadata {
	complexity := t.Complexity
	if complexity == "" {
		complexity = ComplexityFor(len(t.Fields))
	}
	return Metadata{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Version:     t.Version,
		FieldCount:  len(t.Fields),
		Complexity:  complexity,
	}
}
