package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/render"
)

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(context.Context, render.Page, render.RenderOptions) ([]byte, error) {
	return []byte(s.name), nil
}

func TestRegistry_DefaultAndLookup(t *testing.T) {
	registry, err := render.NewRegistry(stubRenderer{"html"}, stubRenderer{"json"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	got, err := registry.Get("")
	if err != nil || got.Name() != "html" {
		t.Fatalf("default renderer = %v, %v", got, err)
	}
	if err := registry.SetDefault("json"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if got, _ := registry.Get(" "); got.Name() != "json" {
		t.Fatalf("default after SetDefault = %s", got.Name())
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if diff := cmp.Diff([]string{"html", "json"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RejectsDuplicatesAndBlankNames(t *testing.T) {
	registry, _ := render.NewRegistry()
	if err := registry.Register(stubRenderer{"html"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(stubRenderer{"html"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := registry.Register(stubRenderer{" "}); err == nil {
		t.Fatalf("expected blank name error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}
	if err := registry.SetDefault("missing"); err == nil {
		t.Fatalf("expected SetDefault error")
	}
}
