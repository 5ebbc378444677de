package render

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ManifestSelector resolves theme selections from an in-memory set of
// manifests. It satisfies theme.ThemeSelector.
type ManifestSelector struct {
	mu             sync.RWMutex
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector builds a selector. The first manifest becomes the
// default theme when callers pass an empty name.
func NewManifestSelector(manifests ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{manifests: make(map[string]*theme.Manifest)}
	for _, manifest := range manifests {
		if err := s.Add(manifest); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a manifest by name.
func (s *ManifestSelector) Add(manifest *theme.Manifest) error {
	if manifest == nil {
		return fmt.Errorf("render: theme manifest is required")
	}
	name := strings.TrimSpace(manifest.Name)
	if name == "" {
		return fmt.Errorf("render: theme manifest name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.manifests[name]; exists {
		return fmt.Errorf("render: theme %q already registered", name)
	}
	s.manifests[name] = manifest
	if s.defaultTheme == "" {
		s.defaultTheme = name
	}
	return nil
}

// SetDefaults sets the theme and variant used for empty selections.
func (s *ManifestSelector) SetDefaults(name, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		s.defaultTheme = name
	}
	s.defaultVariant = strings.TrimSpace(variant)
}

// Select implements theme.ThemeSelector.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}

	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = s.defaultVariant
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}

	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ResolveTheme selects a theme and flattens it into the renderer
// configuration. Variant tokens override base tokens and every token becomes
// a CSS custom property. Asset keys resolve against the manifest prefix;
// unknown keys resolve to "".
// A nil selector yields a nil config.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return RendererConfigFor(selection), nil
}

// RendererConfigFor converts a selection into renderer configuration.
func RendererConfigFor(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}
	manifest := selection.Manifest
	if manifest == nil {
		return cfg
	}

	variant, hasVariant := manifest.Variants[selection.Variant]

	cfg.Tokens = mergeStrings(manifest.Tokens, nil)
	cfg.Partials = mergeStrings(manifest.Templates, nil)
	files := mergeStrings(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if hasVariant {
		cfg.Tokens = mergeStrings(cfg.Tokens, variant.Tokens)
		cfg.Partials = mergeStrings(cfg.Partials, variant.Templates)
		files = mergeStrings(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	if len(cfg.Tokens) > 0 {
		cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
		for key, value := range cfg.Tokens {
			cfg.CSSVars[cssVarName(key)] = value
		}
	}
	cfg.AssetURL = assetResolver(prefix, files)
	return cfg
}

// CSSVarsStyle renders CSS custom properties as a sorted declaration list
// suitable for a :root block.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteByte(';')
	}
	return b.String()
}

func cssVarName(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimLeft(token, "-")
	token = strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(token)
	return "--" + strings.ToLower(token)
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		key = strings.TrimSpace(key)
		if key == "" {
			return ""
		}
		file, ok := files[key]
		if !ok {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return path.Join(prefix, file)
	}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}
