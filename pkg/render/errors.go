package render

import (
	"strings"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// ErrorMapping splits validation feedback into field-level messages keyed by
// field id and page-level messages that match no field.
type ErrorMapping struct {
	Fields map[string][]string
	Page   []string
}

// MapErrors attaches messages to the fields of the page. Keys that do not
// name a field (or are empty/page-level markers) become page-level errors so
// messages are never lost.
func MapErrors(fields []model.FieldDefinition, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{}
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		known[field.ID] = struct{}{}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		id := strings.TrimSpace(key)
		if _, ok := known[id]; !ok || isPageLevelKey(id) {
			mapping.Page = append(mapping.Page, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[id] = append(mapping.Fields[id], messages...)
	}
	mapping.Page = normalizeMessages(mapping.Page)
	return mapping
}

// MergeMessages concatenates and normalises message slices, trimming
// whitespace and removing duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func isPageLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", ".", "#", "page", "form", "__all__":
		return true
	default:
		return false
	}
}
