package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the template or its values.
type RenderOptions struct {
	// Errors surfaces validation feedback keyed by field id. Renderers show
	// these next to the matching field; unknown ids are treated as page-level.
	Errors map[string][]string
	// Subset limits rendering to a selection of groups.
	Subset FieldSubset
	// Theme carries resolved theme tokens. Nil renders with defaults.
	Theme *theme.RendererConfig
	// Standalone asks HTML renderers for a full document (doctype, head,
	// styles) rather than a fragment. PDF export always sets it.
	Standalone bool
}

// FieldSubset selects groups to render. An empty subset renders everything.
type FieldSubset struct {
	Groups []string
}
