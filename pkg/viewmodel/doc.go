// Package viewmodel projects a report value store onto the shape presentation
// code consumes. Projection is lenient: unknown field kinds are treated as
// text and malformed collection JSON degrades to an empty array, so building
// a view-model never fails.
package viewmodel
