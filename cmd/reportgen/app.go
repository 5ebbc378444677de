package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/internal/config"
	"github.com/goliatone/go-reportgen/internal/store"
	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/pdf"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/html"
)

// app holds the collaborators a command needs, built from configuration.
type app struct {
	config    *config.Manager
	cfg       config.Config
	logger    *zap.Logger
	catalog   *catalog.Catalog
	store     *store.Store
	generator *pdf.Generator
	renderers *render.Registry
	pipeline  *orchestrator.Orchestrator
}

type appOptions struct {
	store bool
	pdf   bool
	extra []render.Renderer
}

func newApp(opts appOptions) (*app, error) {
	manager, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := manager.Get()

	logger, err := config.NewLogger(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	a := &app{config: manager, cfg: cfg, logger: logger}
	if err := a.init(opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(opts appOptions) error {
	templates, err := catalog.NewWithBuiltin(catalog.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if dir := a.cfg.Templates.Dir; dir != "" {
		if _, err := templates.LoadDir(dir); err != nil {
			return err
		}
	}
	a.catalog = templates

	var sources []orchestrator.TemplateSource
	if opts.store && a.cfg.Store.Path != "" {
		s, err := store.Open(a.cfg.Store.Path, store.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.store = s
		sources = append(sources, s)
	}
	sources = append(sources, templates)

	htmlOptions := []html.Option{html.WithLogger(a.logger)}
	if href := a.cfg.Theme.Stylesheet; href != "" {
		htmlOptions = append(htmlOptions, html.WithStylesheet(href))
	}
	htmlRenderer, err := html.New(htmlOptions...)
	if err != nil {
		return err
	}
	renderers, err := render.NewRegistry(append([]render.Renderer{htmlRenderer}, opts.extra...)...)
	if err != nil {
		return err
	}
	a.renderers = renderers

	pipelineOptions := []orchestrator.Option{
		orchestrator.WithTemplateSource(orchestrator.Chain(sources...)),
		orchestrator.WithRenderers(renderers),
		orchestrator.WithLogger(a.logger),
	}
	if opts.pdf {
		pcfg := a.cfg.PDF
		a.generator = pdf.NewGenerator(
			pdf.WithBrowser(pcfg.BrowserBin, pcfg.ControlURL),
			pdf.WithLaunchRetry(pcfg.LaunchAttempts, pcfg.LaunchDelay),
			pdf.WithLogger(a.logger),
		)
		pipelineOptions = append(pipelineOptions, orchestrator.WithExporter(a.generator))
	}

	a.pipeline, err = orchestrator.New(pipelineOptions...)
	return err
}

// Close releases the browser, the database and flushes the logger.
func (a *app) Close() {
	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.logger.Warn("close pdf generator", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// loadValues merges, in order: a stored report, a JSON values file and
// key=value overrides.
func (a *app) loadValues(ctx context.Context, reportID, file string, sets []string) (model.Values, string, error) {
	values := model.Values{}
	var pageID string

	if reportID != "" {
		if a.store == nil {
			return nil, "", errors.New("report storage is disabled (set store.path)")
		}
		id, err := uuid.Parse(reportID)
		if err != nil {
			return nil, "", fmt.Errorf("report id %q: %w", reportID, err)
		}
		report, err := a.store.Values(ctx, id)
		if err != nil {
			return nil, "", err
		}
		for key, value := range report.Values {
			values[key] = value
		}
		pageID = report.PageID
	}

	if file != "" {
		fromFile, err := readValuesFile(file)
		if err != nil {
			return nil, "", err
		}
		for key, value := range fromFile {
			values[key] = value
		}
	}

	overrides, err := parseSets(sets)
	if err != nil {
		return nil, "", err
	}
	for key, value := range overrides {
		values[key] = value
	}
	return values, pageID, nil
}

func readValuesFile(path string) (model.Values, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	var values model.Values
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode values %s: %w", path, err)
	}
	return values, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// templateSet lists stored templates ahead of catalog ones. A stored record
// shadows a catalog record with the same id.
type templateSet struct {
	store   *store.Store
	catalog *catalog.Catalog
}

func (a *app) templates() templateSet {
	return templateSet{store: a.store, catalog: a.catalog}
}

func (t templateSet) Template(ctx context.Context, id string) (*model.TemplateRecord, error) {
	if t.store != nil {
		return orchestrator.Chain(t.store, t.catalog).Template(ctx, id)
	}
	return t.catalog.Template(ctx, id)
}

func (t templateSet) Templates(ctx context.Context) ([]model.TemplateRecord, error) {
	records := t.catalog.List()
	if t.store == nil {
		return records, nil
	}
	stored, err := t.store.Templates(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(records))
	for i, record := range records {
		byID[record.ID] = i
	}
	for _, record := range stored {
		if i, ok := byID[record.ID]; ok {
			records[i] = record
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}
