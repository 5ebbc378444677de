package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reportgen/internal/store"
	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
)

func TestParseSets(t *testing.T) {
	values, err := parseSets([]string{"project.name=Riverside", " project.date =2026-03-14", "notes.body=a=b"})
	require.NoError(t, err)
	assert.Equal(t, model.Values{
		"project.name": "Riverside",
		"project.date": "2026-03-14",
		"notes.body":   "a=b",
	}, values)

	_, err = parseSets([]string{"missing-separator"})
	assert.ErrorContains(t, err, "expected key=value")
	_, err = parseSets([]string{"=value"})
	assert.Error(t, err)
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "out/report.pdf", exportPath("out/report.pdf", "site-diary", 1))
	assert.Equal(t, filepath.Join("out", "site-diary.pdf"), exportPath("out", "site-diary", 1))
	assert.Equal(t, filepath.Join("out.pdf", "site-diary.pdf"), exportPath("out.pdf", "site-diary", 2))
}

func TestPageIDFrom(t *testing.T) {
	id, err := pageIDFrom([]string{"site-diary"}, "budget-summary")
	require.NoError(t, err)
	assert.Equal(t, "site-diary", id)

	id, err = pageIDFrom(nil, "budget-summary")
	require.NoError(t, err)
	assert.Equal(t, "budget-summary", id)

	_, err = pageIDFrom(nil, "")
	assert.Error(t, err)
}

func TestListenPort(t *testing.T) {
	assert.Equal(t, ":8080", listenPort(":8080"))
	assert.Equal(t, ":9000", listenPort("127.0.0.1:9000"))
	assert.Equal(t, "", listenPort("localhost"))
}

func TestExportValuesFor(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared.json")
	require.NoError(t, os.WriteFile(shared, []byte(`{"project.name":"Riverside","diary.summary":"shared"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site-diary.json"), []byte(`{"diary.summary":"per page"}`), 0o644))

	exportValues, exportValuesDir, exportSets = shared, dir, []string{"diary.date=2026-03-14"}
	t.Cleanup(func() { exportValues, exportValuesDir, exportSets = "", "", nil })

	values, err := exportValuesFor("site-diary")
	require.NoError(t, err)
	assert.Equal(t, model.Values{
		"project.name":  "Riverside",
		"diary.summary": "per page",
		"diary.date":    "2026-03-14",
	}, values)

	values, err = exportValuesFor("budget-summary")
	require.NoError(t, err)
	assert.Equal(t, "shared", values["diary.summary"])
}

func TestReadValuesFile_RejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":`), 0o644))

	_, err := readValuesFile(path)
	assert.ErrorContains(t, err, "decode values")
}

func TestTemplateSet_StoredRecordsShadowCatalog(t *testing.T) {
	ctx := context.Background()
	templates, err := catalog.NewWithBuiltin()
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "reportgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	custom := model.TemplateRecord{
		ID:    "site-diary",
		Title: "Custom Diary",
		Fields: []model.FieldDefinition{
			{ID: "diary.date", Label: "Date", Type: model.FieldTypeDate, Required: true},
		},
	}
	extra := model.TemplateRecord{
		ID:     "handover",
		Title:  "Handover",
		Fields: []model.FieldDefinition{{ID: "handover.date", Type: model.FieldTypeDate}},
	}
	require.NoError(t, s.SaveTemplate(ctx, custom))
	require.NoError(t, s.SaveTemplate(ctx, extra))

	set := templateSet{store: s, catalog: templates}
	records, err := set.Templates(ctx)
	require.NoError(t, err)

	var ids []string
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	assert.Equal(t, []string{"budget-summary", "handover", "project-schedule", "safety-checklist", "site-diary"}, ids)

	record, err := set.Template(ctx, "site-diary")
	require.NoError(t, err)
	assert.Equal(t, "Custom Diary", record.Title)

	record, err = set.Template(ctx, "budget-summary")
	require.NoError(t, err)
	assert.Equal(t, "financial", record.Category)

	catalogOnly := templateSet{catalog: templates}
	records, err = catalogOnly.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestPrintTemplateTable(t *testing.T) {
	templates, err := catalog.NewWithBuiltin()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printTemplateTable(&buf, templates.List()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[3], "safety-checklist")
	assert.Contains(t, lines[3], "safety")

	list := summaries(templates.List())
	assert.Equal(t, "budget-summary", list[0].ID)
	assert.Equal(t, "financial", list[0].Category)
}
