package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-reportgen/pkg/render"
)

func testManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "site",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":     "#123456",
			"font.body":  "Inter, sans-serif",
		},
		Templates: map[string]string{
			"report.header": "themes/site/header.tpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/site",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{
					Files: map[string]string{"logo": "logo.dark.svg"},
				},
			},
		},
	}
}

func TestResolveTheme_MergesVariant(t *testing.T) {
	selector, err := render.NewManifestSelector(testManifest())
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	cfg, err := render.ResolveTheme(selector, "", "dark")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Theme != "site" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}

	wantVars := map[string]string{
		"--brand":     "#654321",
		"--font-body": "Inter, sans-serif",
	}
	if diff := cmp.Diff(wantVars, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/site/theme.css" {
		t.Fatalf("stylesheet url = %q", got)
	}
	if got := cfg.AssetURL("logo"); got != "/assets/themes/site/logo.dark.svg" {
		t.Fatalf("logo url = %q", got)
	}
	if got := cfg.Partials["report.header"]; got != "themes/site/header.tpl" {
		t.Fatalf("partials not propagated: %q", got)
	}
}

func TestResolveTheme_Errors(t *testing.T) {
	selector, err := render.NewManifestSelector(testManifest())
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	if _, err := render.ResolveTheme(selector, "missing", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := render.ResolveTheme(selector, "site", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	cfg, err := render.ResolveTheme(nil, "site", "")
	if err != nil || cfg != nil {
		t.Fatalf("nil selector should yield nil config, got %v %v", cfg, err)
	}
}

func TestCSSVarsStyle(t *testing.T) {
	got := render.CSSVarsStyle(map[string]string{"--b": "2", "--a": "1"})
	if got != "--a: 1; --b: 2;" {
		t.Fatalf("style = %q", got)
	}
}

func TestResolveTheme_UnknownAssetIsEmpty(t *testing.T) {
	selector, _ := render.NewManifestSelector(testManifest())
	cfg, err := render.ResolveTheme(selector, "site", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := cfg.AssetURL("logo"); got != "" {
		t.Fatalf("expected base theme to have no logo, got %q", got)
	}
	if cfg.CSSVars["--brand"] != "#123456" {
		t.Fatalf("expected base brand token, got %q", cfg.CSSVars["--brand"])
	}
}
