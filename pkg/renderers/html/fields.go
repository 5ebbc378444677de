package html

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/render"
	rendertemplate "github.com/goliatone/go-reportgen/pkg/render/template"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

const emptyPlaceholder = "Not provided"

type section struct {
	ID     string
	Title  string
	Fields []fieldView
}

// fieldView is the presentation-ready form of one field. Kind drives the
// template branch: empty, text, link, date, badge, image, html, table, list.
type fieldView struct {
	ID          string
	Label       string
	Type        string
	Kind        string
	Required    bool
	HelpText    string
	Placeholder string
	Text        string
	Href        string
	HTML        string
	Columns     []string
	Rows        [][]string
	Items       []string
	Errors      []string
}

func (r *Renderer) sections(page render.Page, errs map[string][]string) []section {
	if len(page.Entry.Fields) == 0 {
		return r.schemalessSections(page)
	}

	byGroup := make(map[string][]fieldView)
	for _, field := range page.Entry.Fields {
		group, key := model.SplitID(field.ID)
		var value any
		if bucket, ok := page.Grouped[group]; ok {
			value = bucket[key]
		}
		view := r.fieldView(field, value)
		view.Errors = errs[field.ID]
		byGroup[group] = append(byGroup[group], view)
	}

	groups := page.Groups()
	out := make([]section, 0, len(groups))
	for _, group := range groups {
		fields, ok := byGroup[group]
		if !ok {
			continue
		}
		out = append(out, section{ID: group, Title: rendertemplate.Humanize(group), Fields: fields})
	}
	return out
}

// schemalessSections presents raw values when no template is known. Every
// value is shown as text under its dotted group.
func (r *Renderer) schemalessSections(page render.Page) []section {
	groups := page.Groups()
	out := make([]section, 0, len(groups))
	for _, group := range groups {
		bucket := page.Grouped[group]
		keys := make([]string, 0, len(bucket))
		for key := range bucket {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fields := make([]fieldView, 0, len(keys))
		for _, key := range keys {
			id := key
			if group != model.DefaultGroup {
				id = group + "." + key
			}
			field := model.FieldDefinition{ID: id, Label: rendertemplate.Humanize(key), Type: model.FieldTypeText}
			fields = append(fields, r.fieldView(field, bucket[key]))
		}
		out = append(out, section{ID: group, Title: rendertemplate.Humanize(group), Fields: fields})
	}
	return out
}

func (r *Renderer) fieldView(field model.FieldDefinition, value any) fieldView {
	view := fieldView{
		ID:          field.ID,
		Label:       field.DisplayLabel(),
		Type:        string(field.Type),
		Required:    field.Required,
		HelpText:    field.HelpText,
		Placeholder: field.Placeholder,
	}
	if view.Placeholder == "" {
		view.Placeholder = emptyPlaceholder
	}

	if field.Type.IsCollection() {
		r.collectionView(&view, value)
		return view
	}

	text := strings.TrimSpace(stringify(value))
	if text == "" {
		view.Kind = "empty"
		return view
	}
	view.Text = text

	switch field.Type {
	case model.FieldTypeLink:
		view.Kind = "text"
		if href := validation.NormalizeURL(text); validation.IsURL(href) && safeScheme(href, "http://", "https://", "mailto:") {
			view.Kind = "link"
			view.Href = href
		}
	case model.FieldTypeImage:
		view.Kind = "text"
		if safeScheme(text, "http://", "https://", "data:image/", "/") {
			view.Kind = "image"
			view.Href = text
		}
	case model.FieldTypeDate:
		view.Kind = "date"
	case model.FieldTypeBadge:
		view.Kind = "badge"
	case model.FieldTypeMultiline:
		view.Kind = "html"
		view.HTML = r.multiline(text)
	default:
		view.Kind = "text"
	}
	return view
}

// multiline sanitises user text and keeps its line breaks.
func (r *Renderer) multiline(text string) string {
	clean := r.policy.Sanitize(text)
	lines := strings.Split(strings.ReplaceAll(clean, "\r\n", "\n"), "\n")
	return strings.Join(lines, "<br>\n")
}

func (r *Renderer) collectionView(view *fieldView, value any) {
	items, _ := value.([]any)
	if len(items) == 0 {
		view.Kind = "empty"
		return
	}

	columns := objectColumns(items)
	if columns == nil {
		view.Kind = "list"
		view.Items = make([]string, 0, len(items))
		for _, item := range items {
			view.Items = append(view.Items, stringify(item))
		}
		return
	}

	view.Kind = "table"
	view.Columns = columns
	view.Rows = make([][]string, 0, len(items))
	for _, item := range items {
		obj := item.(map[string]any)
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = stringify(obj[column])
		}
		view.Rows = append(view.Rows, row)
	}
}

// objectColumns returns the sorted union of keys when every item is an
// object, nil otherwise.
func objectColumns(items []any) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil
		}
		for key := range obj {
			seen[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool, json.Number:
		return fmt.Sprint(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

func safeScheme(value string, prefixes ...string) bool {
	lower := strings.ToLower(value)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
