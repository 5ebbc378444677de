package render

import (
	"strings"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// ApplySubset returns a copy of page restricted to the groups named by
// subset. Fields, grouped values and raw values outside the selection are
// dropped. An empty subset returns the page unchanged.
func ApplySubset(page Page, subset FieldSubset) Page {
	groups := normaliseTokens(subset.Groups)
	if len(groups) == 0 {
		return page
	}

	keep := func(group string) bool {
		_, ok := groups[normaliseToken(group)]
		return ok
	}

	out := page
	if len(page.Entry.Fields) > 0 {
		fields := make([]model.FieldDefinition, 0, len(page.Entry.Fields))
		for _, field := range page.Entry.Fields {
			if keep(field.Group()) {
				fields = append(fields, field)
			}
		}
		out.Entry.Fields = fields
	}

	out.Grouped = make(map[string]map[string]any, len(groups))
	for group, bucket := range page.Grouped {
		if keep(group) {
			out.Grouped[group] = bucket
		}
	}

	out.Values = make(model.Values, len(page.Values))
	for id, value := range page.Values {
		group, _ := model.SplitID(id)
		if keep(group) {
			out.Values[id] = value
		}
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if token := normaliseToken(part); token != "" {
				out[token] = struct{}{}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
