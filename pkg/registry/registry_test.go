package registry

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/viewmodel"
)

func storedTemplate() *model.TemplateRecord {
	return &model.TemplateRecord{
		ID:          "report-999",
		Title:       "Concrete Pour Log",
		Description: "Pour sequence and curing notes",
		Category:    "schedule",
		Version:     "2",
		Fields: []model.FieldDefinition{
			{ID: "header.project", Label: "Project", Type: model.FieldTypeText, Required: true},
			{ID: "pour.photos", Label: "Photos", Type: model.FieldTypeAttachments},
			{ID: "notes", Label: "Notes", Type: model.FieldTypeMultiline},
		},
	}
}

func TestResolve_FallbackUsesStoredTemplate(t *testing.T) {
	reg := New()
	stored := storedTemplate()

	entry := reg.Resolve("report-999", stored)
	if !entry.Generic || entry.View != GenericView {
		t.Fatalf("expected generic entry, got %+v", entry)
	}
	if entry.Metadata.Title != stored.Title {
		t.Fatalf("title mismatch: want %q, got %q", stored.Title, entry.Metadata.Title)
	}
	if entry.Metadata.FieldCount != len(stored.Fields) || entry.Metadata.Category != "schedule" {
		t.Fatalf("unexpected metadata %+v", entry.Metadata)
	}

	values := model.Values{"header.project": "Site 6", "pour.photos": "{bad"}
	if diff := cmp.Diff(viewmodel.Build(values, stored.Fields), entry.ViewModel(values)); diff != "" {
		t.Fatalf("view-model mismatch (-build +entry):\n%s", diff)
	}
}

func TestResolve_UnknownTemplatePlaceholder(t *testing.T) {
	reg := New()

	entry := reg.Resolve("report-999", nil)
	if entry.Metadata.Title != "Unknown Template" || entry.Metadata.Category != "unknown" {
		t.Fatalf("unexpected placeholder metadata %+v", entry.Metadata)
	}
	if entry.Metadata.FieldCount != 0 || entry.Metadata.Complexity != model.ComplexitySimple {
		t.Fatalf("unexpected placeholder metadata %+v", entry.Metadata)
	}

	values := model.Values{"header.project": "Site 6", "misc": "raw"}
	want := viewmodel.ViewModel{"header.project": "Site 6", "misc": "raw"}
	if diff := cmp.Diff(want, entry.ViewModel(values)); diff != "" {
		t.Fatalf("identity fallback mismatch (-want +got):\n%s", diff)
	}

	grouped := entry.Grouped(values)
	wantGrouped := viewmodel.Grouped{
		"header":  {"project": "Site 6"},
		"general": {"misc": "raw"},
	}
	if diff := cmp.Diff(wantGrouped, grouped); diff != "" {
		t.Fatalf("grouped fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SpecialisedEntryWins(t *testing.T) {
	reg := New()
	custom := func(values model.Values) viewmodel.ViewModel {
		return viewmodel.ViewModel{"custom": values.Get("x")}
	}
	reg.MustRegister("report-001", Bundle{
		View:     "daily-safety",
		Build:    custom,
		Metadata: model.Metadata{Title: "Daily Safety", Category: "safety"},
	})

	entry := reg.Resolve("report-001", storedTemplate())
	if entry.Generic {
		t.Fatalf("expected specialised entry")
	}
	if entry.View != "daily-safety" || entry.Metadata.Title != "Daily Safety" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if got := entry.ViewModel(model.Values{"x": "1"}); got["custom"] != "1" {
		t.Fatalf("custom builder not used: %v", got)
	}
}

func TestRegisterTemplate_UsesGenericBuilder(t *testing.T) {
	reg := New()
	stored := storedTemplate()
	if err := reg.RegisterTemplate(*stored, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	entry := reg.Resolve(stored.ID, nil)
	if entry.Generic || entry.View != GenericView {
		t.Fatalf("unexpected entry %+v", entry)
	}
	grouped := entry.Grouped(model.Values{"header.project": "Site 6"})
	want := viewmodel.Grouped{
		"header":  {"project": "Site 6"},
		"pour":    {"photos": []any{}},
		"general": {"notes": ""},
	}
	if diff := cmp.Diff(want, grouped); diff != "" {
		t.Fatalf("grouped mismatch (-want +got):\n%s", diff)
	}
	if entry.Metadata.Complexity != model.ComplexitySimple {
		t.Fatalf("expected derived complexity, got %q", entry.Metadata.Complexity)
	}
}

func TestRegister_RejectsDuplicatesAndEmptyIDs(t *testing.T) {
	reg := New()
	if err := reg.Register("  ", Bundle{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if err := reg.Register("report-001", Bundle{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("report-001", Bundle{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustRegister to panic")
		}
	}()
	reg.MustRegister("report-001", Bundle{})
}

func TestList_Sorted(t *testing.T) {
	reg := New()
	for _, id := range []string{"report-010", "report-002", "report-001"} {
		reg.MustRegister(id, Bundle{})
	}
	if diff := cmp.Diff([]string{"report-001", "report-002", "report-010"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("report-002") || reg.Has("report-003") {
		t.Fatalf("Has returned unexpected results")
	}
}

func TestResolve_ConcurrentWithRegister(t *testing.T) {
	reg := New()
	stored := storedTemplate()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = reg.Resolve("report-999", stored)
		}()
		go func(n int) {
			defer wg.Done()
			_ = reg.Register(string(rune('a'+n)), Bundle{})
		}(i)
	}
	wg.Wait()
	if got := len(reg.List()); got != 8 {
		t.Fatalf("expected 8 bundles, got %d", got)
	}
}
