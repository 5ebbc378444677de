// Package orchestrator wires template lookup, view-model building,
// validation, rendering and PDF export into a single pipeline.
package orchestrator
