// Package template wraps pongo2 behind a small rendering contract so report
// renderers can load templates from embedded or on-disk sources.
package template
