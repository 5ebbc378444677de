package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/template.schema.json
var templateSchemaJSON []byte

const templateSchemaURL = "https://schemas.goliatone.com/reportgen/template.schema.json"

var (
	templateSchemaOnce sync.Once
	templateSchema     *jsonschema.Schema
	templateSchemaErr  error
)

// SchemaIssue represents a document validation error with location metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures template document validation outcomes.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// TemplateSchema returns the embedded JSON Schema describing template files.
func TemplateSchema() []byte {
	return append([]byte(nil), templateSchemaJSON...)
}

// ValidateTemplateDocument checks a raw template document (JSON or YAML)
// against the embedded template schema.
func ValidateTemplateDocument(raw []byte) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	doc, err := decodeDocument(raw)
	if err != nil {
		result.Valid = false
		result.Issues = []SchemaIssue{{Message: err.Error()}}
		return result
	}

	schema, err := compiledTemplateSchema()
	if err != nil {
		result.Valid = false
		result.Issues = []SchemaIssue{{Message: err.Error()}}
		return result
	}

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		result.Issues = issuesFromError(err)
	}
	return result
}

func compiledTemplateSchema() (*jsonschema.Schema, error) {
	templateSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(templateSchemaURL, bytes.NewReader(templateSchemaJSON)); err != nil {
			templateSchemaErr = fmt.Errorf("validation: load template schema: %w", err)
			return
		}
		templateSchema, templateSchemaErr = compiler.Compile(templateSchemaURL)
		if templateSchemaErr != nil {
			templateSchemaErr = fmt.Errorf("validation: compile template schema: %w", templateSchemaErr)
		}
	})
	return templateSchema, templateSchemaErr
}

// decodeDocument normalises JSON and YAML payloads into the generic JSON
// value model the schema validator understands.
func decodeDocument(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("document is empty")
	}

	payload := trimmed
	if trimmed[0] != '{' && trimmed[0] != '[' {
		var node any
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		converted, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		payload = converted
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc, nil
}

func issuesFromError(err error) []SchemaIssue {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []SchemaIssue{{Message: strings.TrimSpace(err.Error())}}
	}

	var issues []SchemaIssue
	collectLeafIssues(verr, &issues)
	if len(issues) == 0 {
		issues = append(issues, SchemaIssue{
			Path:    verr.InstanceLocation,
			Field:   fieldPathFromPointer(verr.InstanceLocation),
			Message: strings.TrimSpace(verr.Message),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Path < issues[j].Path
	})
	return issues
}

func collectLeafIssues(verr *jsonschema.ValidationError, out *[]SchemaIssue) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		*out = append(*out, SchemaIssue{
			Path:    verr.InstanceLocation,
			Field:   fieldPathFromPointer(verr.InstanceLocation),
			Message: strings.TrimSpace(verr.Message),
		})
		return
	}
	for _, cause := range verr.Causes {
		collectLeafIssues(cause, out)
	}
}

// fieldPathFromPointer turns an instance pointer such as /fields/2/type into
// the dotted form fields.2.type.
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.ReplaceAll(part, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}
