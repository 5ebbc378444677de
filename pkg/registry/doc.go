// Package registry maps report page ids to the capability bundle used to
// present them: a view binding, a view-model builder and display metadata.
// Resolution degrades gracefully instead of failing so the UI always has
// something to render.
package registry
