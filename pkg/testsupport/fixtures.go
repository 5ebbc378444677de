package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// SiteVisitTemplate returns a template touching every field kind. It is
// shared by renderer, orchestrator and server tests.
func SiteVisitTemplate() model.TemplateRecord {
	return model.TemplateRecord{
		ID:          "site-visit",
		Title:       "Site Visit",
		Description: "Weekly site inspection",
		Category:    "safety",
		Version:     "1.0.0",
		Fields: []model.FieldDefinition{
			{ID: "project.name", Label: "Project", Type: model.FieldTypeText, Required: true},
			{ID: "project.site", Label: "Site", Type: model.FieldTypeLink},
			{ID: "project.date", Label: "Visit date", Type: model.FieldTypeDate, Required: true},
			{ID: "status.level", Label: "Status", Type: model.FieldTypeBadge},
			{ID: "status.photo", Label: "Photo", Type: model.FieldTypeImage},
			{ID: "notes", Label: "Notes", Type: model.FieldTypeMultiline, Validation: &model.Validation{MaxLength: 500}},
			{ID: "team.authors", Label: "Inspectors", Type: model.FieldTypeAuthors},
			{ID: "team.attachments", Label: "Attachments", Type: model.FieldTypeAttachments},
		},
	}
}

// SiteVisitValues returns a value store matching SiteVisitTemplate.
func SiteVisitValues() model.Values {
	return model.Values{
		"project.name":     "Riverside Tower",
		"project.site":     "example.com/riverside",
		"project.date":     "2026-03-14",
		"status.level":     "On track",
		"status.photo":     "https://example.com/photo.jpg",
		"notes":            "Scaffold checked.\nNo issues.",
		"team.authors":     `["Ada","Grace"]`,
		"team.attachments": `[{"name":"plan.pdf","url":"https://example.com/plan.pdf"}]`,
	}
}

// MustLoadTemplate reads a JSON template record fixture.
func MustLoadTemplate(t *testing.T, path string) model.TemplateRecord {
	t.Helper()

	record, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	return record
}

// LoadTemplate reads a JSON template record fixture without *testing.T.
func LoadTemplate(path string) (model.TemplateRecord, error) {
	if path == "" {
		return model.TemplateRecord{}, errors.New("testsupport: template path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TemplateRecord{}, fmt.Errorf("testsupport: read template: %w", err)
	}
	var out model.TemplateRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return model.TemplateRecord{}, fmt.Errorf("testsupport: unmarshal template: %w", err)
	}
	return out, nil
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
