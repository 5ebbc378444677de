package validation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// Issue ties a human readable message to the field that produced it.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects every problem found across a value store. Valid is true
// iff Errors is empty.
type Result struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
	Issues []Issue  `json:"issues,omitempty"`
}

// ByField groups messages by field id for presentation.
func (r Result) ByField() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Issues))
	for _, issue := range r.Issues {
		out[issue.Field] = append(out[issue.Field], issue.Message)
	}
	return out
}

// dateLayouts are the calendar formats accepted for date fields.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

var (
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)
	patternCache  sync.Map
)

// Validate checks every field independently and collects all resulting
// messages. It never stops at the first failure.
func Validate(values model.Values, fields []model.FieldDefinition) Result {
	result := Result{Errors: []string{}}
	for _, field := range fields {
		for _, message := range validateField(field, values.Get(field.ID)) {
			result.Errors = append(result.Errors, message)
			result.Issues = append(result.Issues, Issue{Field: field.ID, Message: message})
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateField runs the checks for a single field, returning its messages.
func ValidateField(field model.FieldDefinition, value string) []string {
	return validateField(field, value)
}

func validateField(field model.FieldDefinition, value string) []string {
	label := field.DisplayLabel()

	if strings.TrimSpace(value) == "" {
		if field.Required {
			return []string{fmt.Sprintf("Field \"%s\" is required", label)}
		}
		return nil
	}

	var messages []string
	switch field.Type {
	case model.FieldTypeDate:
		if !IsDate(value) {
			messages = append(messages, fmt.Sprintf("Field \"%s\" must be a valid date", label))
		}
	case model.FieldTypeLink:
		if !IsURL(value) {
			messages = append(messages, fmt.Sprintf("Field \"%s\" must be a valid URL", label))
		}
	case model.FieldTypeAttachments, model.FieldTypeAuthors, model.FieldTypeContents:
		if !json.Valid([]byte(value)) {
			messages = append(messages, fmt.Sprintf("Field \"%s\" must be valid JSON", label))
		}
	}

	return append(messages, checkConstraints(label, field.Validation, value)...)
}

func checkConstraints(label string, rules *model.Validation, value string) []string {
	if rules.Empty() {
		return nil
	}
	custom := strings.TrimSpace(rules.Message)
	pick := func(generated string) string {
		if custom != "" {
			return custom
		}
		return generated
	}

	var messages []string
	length := utf8.RuneCountInString(value)
	if rules.MinLength > 0 && length < rules.MinLength {
		messages = append(messages, pick(fmt.Sprintf("Field \"%s\" must be at least %d characters", label, rules.MinLength)))
	}
	if rules.MaxLength > 0 && length > rules.MaxLength {
		messages = append(messages, pick(fmt.Sprintf("Field \"%s\" must be at most %d characters", label, rules.MaxLength)))
	}
	if rules.Pattern != "" {
		re, err := compilePattern(rules.Pattern)
		switch {
		case err != nil:
			messages = append(messages, fmt.Sprintf("Field \"%s\" has an invalid validation pattern", label))
		case !re.MatchString(value):
			messages = append(messages, pick(fmt.Sprintf("Field \"%s\" does not match the required format", label)))
		}
	}
	return messages
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// IsDate reports whether the value parses with one of the accepted layouts.
func IsDate(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return true
		}
	}
	return false
}

// NormalizeURL prepends https:// when the value carries no scheme.
func NormalizeURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if schemePattern.MatchString(trimmed) && !looksLikeHostPort(trimmed) {
		return trimmed
	}
	return "https://" + trimmed
}

// IsURL reports whether the normalised value is an absolute URL. Opaque
// schemes such as mailto: need no host; everything else does.
func IsURL(value string) bool {
	parsed, err := url.Parse(NormalizeURL(value))
	if err != nil || parsed.Scheme == "" {
		return false
	}
	if parsed.Opaque != "" {
		return true
	}
	host := parsed.Hostname()
	if host == "" || strings.ContainsAny(host, " \t") {
		return false
	}
	return true
}

// looksLikeHostPort catches "example.com:8080" which the scheme pattern
// would otherwise read as scheme "example.com".
func looksLikeHostPort(value string) bool {
	scheme, rest, _ := strings.Cut(value, ":")
	if !strings.Contains(scheme, ".") && scheme != "localhost" {
		return false
	}
	if rest == "" || strings.HasPrefix(rest, "//") {
		return false
	}
	port, _, _ := strings.Cut(rest, "/")
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return port != ""
}
