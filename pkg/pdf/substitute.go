package pdf

import (
	"html"
	"regexp"
	"time"

	"github.com/goliatone/go-reportgen/pkg/model"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Substitute replaces {{key}} tokens with HTML-escaped values. Tokens with
// no value become empty. Chrome's pageNumber/totalPages span classes are
// plain markup and pass through untouched.
func Substitute(tpl string, vars map[string]string) string {
	if tpl == "" {
		return ""
	}
	return tokenPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		key := tokenPattern.FindStringSubmatch(token)[1]
		return html.EscapeString(vars[key])
	})
}

// Vars builds the substitution variables for a report: title, category and
// date (YYYY-MM-DD) plus caller-supplied extras, which win on conflict.
func Vars(meta model.Metadata, now time.Time, extra map[string]string) map[string]string {
	vars := map[string]string{
		"title":    meta.Title,
		"category": meta.Category,
		"version":  meta.Version,
		"date":     now.Format("2006-01-02"),
	}
	for key, value := range extra {
		vars[key] = value
	}
	return vars
}

// SubstituteText is Substitute without escaping, for plain-text targets such
// as watermarks.
func SubstituteText(tpl string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		return vars[tokenPattern.FindStringSubmatch(token)[1]]
	})
}
