package html_test

import (
	"context"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/registry"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/html"
	"github.com/goliatone/go-reportgen/pkg/testsupport"
)

func sitePage(values model.Values) render.Page {
	record := testsupport.SiteVisitTemplate()
	entry := registry.New().Resolve(record.ID, &record)
	return render.NewPage(entry, values)
}

func mustRender(t *testing.T, renderer *html.Renderer, page render.Page, options render.RenderOptions) string {
	t.Helper()
	out, err := renderer.Render(testsupport.Context(), page, options)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(output, fragment) {
			t.Errorf("output missing %q\n%s", fragment, output)
		}
	}
}

func TestRenderer_RenderSectionsPerGroup(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(testsupport.SiteVisitValues()), render.RenderOptions{})

	assertContains(t, output,
		`<article class="report report--safety" data-page-id="site-visit">`,
		`<h1 class="report__title">Site Visit</h1>`,
		`<section class="report__section" id="section-project">`,
		`<h2 class="report__section-title">Project</h2>`,
		`<h2 class="report__section-title">Status</h2>`,
		`<h2 class="report__section-title">General</h2>`,
		`<h2 class="report__section-title">Team</h2>`,
		`<a href="https://example.com/riverside" rel="noopener noreferrer">example.com/riverside</a>`,
		`<time datetime="2026-03-14">2026-03-14</time>`,
		`<span class="badge">On track</span>`,
		`<img src="https://example.com/photo.jpg" alt="Photo">`,
		"Scaffold checked.<br>\nNo issues.",
		`<li>Ada</li><li>Grace</li>`,
		`<th>Name</th><th>Url</th>`,
		`<td>plan.pdf</td><td>https://example.com/plan.pdf</td>`,
	)

	if strings.Contains(output, "<!DOCTYPE html>") {
		t.Fatalf("fragment render should not include a document wrapper")
	}
	if first, second := strings.Index(output, "section-project"), strings.Index(output, "section-status"); first > second {
		t.Fatalf("expected groups in declaration order")
	}
}

func TestRenderer_SanitisesMultilineAndEscapesText(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	values := testsupport.SiteVisitValues()
	values["notes"] = `<script>alert(1)</script><b>bold</b>`
	values["project.name"] = `<i>Tower</i>`
	values["project.site"] = "javascript:alert(1)"

	output := mustRender(t, renderer, sitePage(values), render.RenderOptions{})

	if strings.Contains(output, "<script>") {
		t.Fatalf("script tag survived sanitising:\n%s", output)
	}
	if strings.Contains(output, `href="javascript:`) {
		t.Fatalf("unsafe link rendered as anchor:\n%s", output)
	}
	assertContains(t, output, "<b>bold</b>", "&lt;i&gt;Tower&lt;/i&gt;")
}

func TestRenderer_EmptyValuesUsePlaceholder(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(model.Values{}), render.RenderOptions{})
	assertContains(t, output, `<span class="field__empty">Not provided</span>`)
	if strings.Contains(output, "<table") {
		t.Fatalf("empty collection should not render a table")
	}
}

func TestRenderer_ShowsErrorsNextToFields(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(model.Values{}), render.RenderOptions{
		Errors: map[string][]string{
			"project.name": {`Field "Project" is required`},
			"":             {"Report is incomplete"},
		},
	})

	assertContains(t, output,
		`<div class="field field--text field--invalid" data-field-id="project.name">`,
		`<li>Field &quot;Project&quot; is required</li>`,
		`<ul class="report__errors" role="alert">`,
		`<li>Report is incomplete</li>`,
	)
}

func TestRenderer_StandaloneWithTheme(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(testsupport.SiteVisitValues()), render.RenderOptions{
		Standalone: true,
		Theme:      testThemeConfig(),
	})

	assertContains(t, output,
		"<!DOCTYPE html>",
		"<title>Site Visit</title>",
		`<link rel="stylesheet" href="/themes/acme/theme.css">`,
		":root { --brand: #123456; }",
		`data-theme="acme" data-variant="dark"`,
		".report__title{",
	)
}

func TestRenderer_WithoutDefaultStyles(t *testing.T) {
	renderer, err := html.New(html.WithoutDefaultStyles(), html.WithStylesheet("/assets/report.css"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(nil), render.RenderOptions{Standalone: true})
	assertContains(t, output, `<link rel="stylesheet" href="/assets/report.css">`)
	if strings.Contains(output, ".report__title{") {
		t.Fatalf("expected embedded css to be omitted")
	}
}

func TestRenderer_SubsetLimitsSections(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := mustRender(t, renderer, sitePage(testsupport.SiteVisitValues()), render.RenderOptions{
		Subset: render.FieldSubset{Groups: []string{"status"}},
	})
	assertContains(t, output, "section-status")
	if strings.Contains(output, "section-project") || strings.Contains(output, "section-team") {
		t.Fatalf("expected only the status section:\n%s", output)
	}
}

func TestRenderer_SchemalessPage(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	entry := registry.New().Resolve("ad-hoc", nil)
	page := render.NewPage(entry, model.Values{"summary.total": "42", "owner": "Ada"})
	output := mustRender(t, renderer, page, render.RenderOptions{})

	assertContains(t, output,
		`<h1 class="report__title">Unknown Template</h1>`,
		`data-field-id="summary.total"`,
		`data-field-id="owner"`,
		`<h2 class="report__section-title">Summary</h2>`,
	)
}

func TestRenderer_LogsRender(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	renderer, err := html.New(html.WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	mustRender(t, renderer, sitePage(nil), render.RenderOptions{})
	if logs.FilterMessage("rendered report page").Len() != 1 {
		t.Fatalf("expected render log entry, got %v", logs.All())
	}
}

func TestRenderer_ContextCancelled(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	ctx, cancel := context.WithCancel(testsupport.Context())
	cancel()
	if _, err := renderer.Render(ctx, sitePage(nil), render.RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func testThemeConfig() *theme.RendererConfig {
	return &theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		Tokens: map[string]string{
			"brand": "#123456",
		},
		CSSVars: map[string]string{
			"--brand": "#123456",
		},
		AssetURL: func(key string) string {
			if key != "stylesheet" {
				return ""
			}
			return "/themes/acme/theme.css"
		},
	}
}
