package validation

import "testing"

func TestValidateTemplateDocument_ValidYAML(t *testing.T) {
	raw := []byte(`
id: safety-checklist
title: Safety Checklist
category: safety
fields:
  - id: header.project
    label: Project
    type: text
    required: true
    validation:
      minLength: 2
  - id: safety.photos
    type: attachments
`)
	result := ValidateTemplateDocument(raw)
	if !result.Valid {
		t.Fatalf("expected document to be valid: %#v", result.Issues)
	}
}

func TestValidateTemplateDocument_ValidJSON(t *testing.T) {
	raw := []byte(`{"id":"budget","title":"Budget","fields":[{"id":"totals.amount","type":"text"}]}`)
	if result := ValidateTemplateDocument(raw); !result.Valid {
		t.Fatalf("expected document to be valid: %#v", result.Issues)
	}
}

func TestValidateTemplateDocument_FieldPath(t *testing.T) {
	raw := []byte(`{"id":"budget","title":"Budget","fields":[{"id":"totals.amount","type":"currency"}]}`)
	result := ValidateTemplateDocument(raw)
	if result.Valid {
		t.Fatalf("expected document to be invalid")
	}
	if len(result.Issues) == 0 {
		t.Fatalf("expected validation issues")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Field == "fields.0.type" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an issue at fields.0.type, got %#v", result.Issues)
	}
}

func TestValidateTemplateDocument_Empty(t *testing.T) {
	result := ValidateTemplateDocument([]byte("   "))
	if result.Valid || len(result.Issues) != 1 {
		t.Fatalf("expected a single decode issue, got %#v", result)
	}
}

func TestFieldPathFromPointer(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"/fields/2/type":      "fields.2.type",
		"#/fields/0/id":       "fields.0.id",
		"/fields/1/a~1b":      "fields.1.a/b",
		"/validation/pattern": "validation.pattern",
	}
	for pointer, want := range cases {
		if got := fieldPathFromPointer(pointer); got != want {
			t.Fatalf("fieldPathFromPointer(%q) = %q, want %q", pointer, got, want)
		}
	}
}
