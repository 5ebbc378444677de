package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/render"
)

func TestMapErrors_SplitsFieldAndPageMessages(t *testing.T) {
	fields := []model.FieldDefinition{
		{ID: "project.name", Label: "Project", Type: model.FieldTypeText},
		{ID: "project.site", Label: "Site", Type: model.FieldTypeLink},
	}

	payload := map[string][]string{
		"project.name":  {`Field "Project" is required`, " "},
		" project.site": {`Field "Site" must be a valid URL`},
		"unknown.field": {"Stale value"},
		"":              {"Report could not be saved", "Stale value"},
	}

	mapped := render.MapErrors(fields, payload)

	wantFields := map[string][]string{
		"project.name": {`Field "Project" is required`},
		"project.site": {`Field "Site" must be a valid URL`},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantPage := []string{"Report could not be saved", "Stale value"}
	if diff := cmp.Diff(wantPage, mapped.Page); diff != "" {
		t.Fatalf("page errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrors_EmptyPayload(t *testing.T) {
	mapped := render.MapErrors(nil, nil)
	if mapped.Fields != nil || mapped.Page != nil {
		t.Fatalf("expected empty mapping, got %+v", mapped)
	}
}

func TestMergeMessages(t *testing.T) {
	merged := render.MergeMessages([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}
