package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoFields is returned when a page has neither a schema nor values to
	// prompt for.
	ErrNoFields = errors.New("tui: page has no fields to fill")
)
