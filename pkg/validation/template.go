package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// TemplateError lists every structural problem found in a template record.
type TemplateError struct {
	TemplateID string
	Problems   []string
}

func (e *TemplateError) Error() string {
	id := e.TemplateID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("validation: template %s: %s", id, strings.Join(e.Problems, "; "))
}

// ValidateTemplate checks a template schema before it is registered or
// stored. Rendering stays lenient about the same problems; this check exists
// for authoring tools and the catalog loader.
func ValidateTemplate(record model.TemplateRecord) error {
	var problems []string
	if strings.TrimSpace(record.ID) == "" {
		problems = append(problems, "id is required")
	}

	seen := make(map[string]struct{}, len(record.Fields))
	for idx, field := range record.Fields {
		ref := field.ID
		if strings.TrimSpace(ref) == "" {
			problems = append(problems, fmt.Sprintf("fields[%d]: id is required", idx))
			ref = fmt.Sprintf("fields[%d]", idx)
		} else if _, dup := seen[field.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate field id", ref))
		}
		seen[field.ID] = struct{}{}

		if !field.Type.Known() {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", ref, field.Type))
		}
		if rules := field.Validation; rules != nil {
			if rules.MinLength < 0 || rules.MaxLength < 0 {
				problems = append(problems, fmt.Sprintf("%s: lengths must not be negative", ref))
			}
			if rules.MaxLength > 0 && rules.MinLength > rules.MaxLength {
				problems = append(problems, fmt.Sprintf("%s: minLength exceeds maxLength", ref))
			}
			if rules.Pattern != "" {
				if _, err := regexp.Compile(rules.Pattern); err != nil {
					problems = append(problems, fmt.Sprintf("%s: invalid pattern: %v", ref, err))
				}
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &TemplateError{TemplateID: record.ID, Problems: problems}
}
