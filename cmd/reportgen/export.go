package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/pdf"
)

var (
	exportValues    string
	exportValuesDir string
	exportSets      []string
	exportOut       string
	exportDraft     bool
)

var exportCmd = &cobra.Command{
	Use:   "export <pageID>...",
	Short: "Export one or more report pages to PDF",
	Long: `Export report pages to PDF through headless Chromium.

Values come from --values (shared by every page) or --values-dir, where
<pageID>.json is read for each page. Pages with invalid values are refused
unless --draft is set, which stamps a DRAFT watermark instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{store: true, pdf: true})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		docs := make([]pdf.Document, 0, len(args))
		var refused []error
		for _, pageID := range args {
			values, err := exportValuesFor(pageID)
			if err != nil {
				return err
			}
			doc, _, err := a.pipeline.Prepare(ctx, orchestrator.Request{
				PageID: pageID,
				Values: values,
				Draft:  exportDraft,
			})
			var invalid *orchestrator.ValidationError
			if errors.As(err, &invalid) {
				refused = append(refused, err)
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		if len(docs) == 0 {
			return errors.Join(refused...)
		}

		results, err := a.generator.ExportAll(ctx, docs, a.cfg.PDF.Concurrency)
		if err != nil {
			return err
		}
		for _, result := range results {
			path := exportPath(exportOut, result.Name, len(args))
			if err := writeOutput(path, result.PDF); err != nil {
				return err
			}
			a.logger.Debug("pdf written", zap.String("page_id", result.Name), zap.String("path", path))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", result.Name, path)
		}
		return errors.Join(refused...)
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportValues, "values", "", "JSON file with field values for every page")
	f.StringVar(&exportValuesDir, "values-dir", "", "directory of <pageID>.json value files")
	f.StringArrayVar(&exportSets, "set", nil, "field value as key=value (repeatable)")
	f.StringVarP(&exportOut, "out", "o", ".", "output file for a single page, or output directory")
	f.BoolVar(&exportDraft, "draft", false, "export invalid pages with a DRAFT watermark")
}

func exportValuesFor(pageID string) (model.Values, error) {
	values := model.Values{}
	if exportValues != "" {
		shared, err := readValuesFile(exportValues)
		if err != nil {
			return nil, err
		}
		values = shared
	}
	if exportValuesDir != "" {
		path := filepath.Join(exportValuesDir, pageID+".json")
		perPage, err := readValuesFile(path)
		switch {
		case err == nil:
			for key, value := range perPage {
				values[key] = value
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	overrides, err := parseSets(exportSets)
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		values[key] = value
	}
	return values, nil
}

// exportPath writes a single page to out when out names a .pdf file, and
// otherwise treats out as a directory.
func exportPath(out, name string, pages int) string {
	if pages == 1 && strings.EqualFold(filepath.Ext(out), ".pdf") {
		return out
	}
	return filepath.Join(out, name+".pdf")
}

func parseSets(sets []string) (model.Values, error) {
	values := model.Values{}
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", set)
		}
		values[key] = value
	}
	return values, nil
}
