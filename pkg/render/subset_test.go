package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/registry"
)

func samplePage() Page {
	fields := []model.FieldDefinition{
		{ID: "project.name", Label: "Project", Type: model.FieldTypeText},
		{ID: "project.date", Label: "Date", Type: model.FieldTypeDate},
		{ID: "budget.total", Label: "Total", Type: model.FieldTypeBadge},
		{ID: "notes", Label: "Notes", Type: model.FieldTypeMultiline},
	}
	entry := registry.New().Resolve("budget-summary", &model.TemplateRecord{ID: "budget-summary", Fields: fields})
	return NewPage(entry, model.Values{
		"project.name": "Riverside",
		"budget.total": "12000",
		"notes":        "on track",
	})
}

func TestApplySubset_ByGroup(t *testing.T) {
	page := ApplySubset(samplePage(), FieldSubset{Groups: []string{" Budget ", "general"}})

	var ids []string
	for _, field := range page.Entry.Fields {
		ids = append(ids, field.ID)
	}
	if diff := cmp.Diff([]string{"budget.total", "notes"}, ids); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"budget", "general"}, page.Groups()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if _, ok := page.Grouped["project"]; ok {
		t.Fatalf("expected project group removed, got %+v", page.Grouped)
	}
	if diff := cmp.Diff(model.Values{"budget.total": "12000", "notes": "on track"}, page.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySubset_CommaSeparated(t *testing.T) {
	page := ApplySubset(samplePage(), FieldSubset{Groups: []string{"project,budget"}})
	if diff := cmp.Diff([]string{"project", "budget"}, page.Groups()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySubset_EmptyKeepsPage(t *testing.T) {
	original := samplePage()
	page := ApplySubset(original, FieldSubset{Groups: []string{" ", ""}})
	if len(page.Entry.Fields) != len(original.Entry.Fields) {
		t.Fatalf("expected fields untouched, got %d", len(page.Entry.Fields))
	}
}

func TestPageGroups_WithoutSchemaSorted(t *testing.T) {
	entry := registry.New().Resolve("ad-hoc", nil)
	page := NewPage(entry, model.Values{"z.a": "1", "a.b": "2", "plain": "3"})
	if diff := cmp.Diff([]string{"a", "general", "z"}, page.Groups()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}
