package tui

import (
	"encoding/json"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// State tracks collected values and outstanding errors keyed by field id.
type State struct {
	values model.Values
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill model.Values, errs map[string][]string) *State {
	values := prefill.Clone()
	if values == nil {
		values = model.Values{}
	}
	cloned := make(map[string][]string, len(errs))
	for key, messages := range errs {
		cloned[key] = append([]string(nil), messages...)
	}
	return &State{values: values, errors: cloned}
}

// Values returns the collected value store.
func (s *State) Values() model.Values {
	if s == nil {
		return nil
	}
	return s.values
}

// ErrorsFor returns the errors attached to a field id.
func (s *State) ErrorsFor(id string) []string {
	if s == nil {
		return nil
	}
	return s.errors[id]
}

// Value returns the stored string for id.
func (s *State) Value(id string) string {
	if s == nil {
		return ""
	}
	return s.values.Get(id)
}

// Set stores a value and clears errors for the field. Empty values are
// removed so absent and empty stay indistinguishable.
func (s *State) Set(id, value string) {
	if value == "" {
		delete(s.values, id)
	} else {
		s.values[id] = value
	}
	delete(s.errors, id)
}

// List decodes a stored JSON string array. Non-string entries are skipped.
func (s *State) List(id string) []string {
	raw := s.Value(id)
	if raw == "" {
		return nil
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok {
			out = append(out, text)
		}
	}
	return out
}
