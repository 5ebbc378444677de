package template_test

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-reportgen/pkg/render/template"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T, options ...template.Option) *template.Engine {
	t.Helper()
	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := template.New(append([]template.Option{template.WithFS(sub)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWritesOutput(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	got, err := engine.RenderTemplate("heading", map[string]any{"title": "  Site <Diary>  "}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<h1>Site &lt;Diary&gt;</h1>\n"
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
	if buf.String() != want {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, buf.String())
	}
}

func TestEngine_GlobalsAndFilters(t *testing.T) {
	engine := newEngine(t, template.WithGlobalData(map[string]any{"company": "Acme"}))

	got, err := engine.RenderTemplate("groups.tpl", map[string]any{
		"groups":  []string{"site_visit", "budgetSummary"},
		"authors": []any{"Ada"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "[Site visit][Budget summary] list Acme\n"
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine, err := template.New(template.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	name := fmt.Sprintf("shout_%d", len(t.Name()))
	err = engine.RegisterFilter(name, func(input any, _ any) (any, error) {
		return strings.ToUpper(fmt.Sprint(input)) + "!", nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter(name, func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderString("{{ name|"+name+" }}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_StructData(t *testing.T) {
	engine, err := template.New(template.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := struct {
		Title string `json:"title"`
	}{Title: "Weekly"}
	got, err := engine.RenderString("{{ title }}", data)
	if err != nil || got != "Weekly" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestEngine_RequiresSource(t *testing.T) {
	if _, err := template.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
	if _, err := newEngine(t).RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"general":      "General",
		"site_visit":   "Site visit",
		"siteVisit":    "Site visit",
		"project.name": "Project name",
	}
	for in, want := range cases {
		if got := template.Humanize(in); got != want {
			t.Errorf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
