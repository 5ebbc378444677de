package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/openapi"
)

var (
	templatesJSON bool
	openapiOut    string
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Inspect and manage report templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every available template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.templates().Templates(cmd.Context())
		if err != nil {
			return err
		}
		if templatesJSON {
			return writeJSON(cmd.OutOrStdout(), summaries(records))
		}
		return printTemplateTable(cmd.OutOrStdout(), records)
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <pageID>",
	Short: "Print a template document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()

		record, err := a.templates().Template(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if templatesJSON {
			return writeJSON(cmd.OutOrStdout(), record)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(record)
	},
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Validate template documents and save them to the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()
		if a.store == nil {
			return errors.New("template import needs store.path")
		}

		var errs []error
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			record, err := catalog.ParseDocument(filepath.Base(path), raw)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := a.store.SaveTemplate(cmd.Context(), record); err != nil {
				errs = append(errs, fmt.Errorf("save %s: %w", record.ID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d fields)\n", record.ID, len(record.Fields))
		}
		return errors.Join(errs...)
	},
}

var templatesOpenAPICmd = &cobra.Command{
	Use:   "openapi",
	Short: "Write the OpenAPI document for the available templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.templates().Templates(cmd.Context())
		if err != nil {
			return err
		}
		doc := openapi.Build(records)
		if err := openapi.Validate(cmd.Context(), doc); err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(openapiOut, append(data, '\n'))
	},
}

func init() {
	templatesCmd.PersistentFlags().BoolVar(&templatesJSON, "json", false, "print JSON")
	templatesOpenAPICmd.Flags().StringVarP(&openapiOut, "output", "o", "-", "output file")
	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesImportCmd, templatesOpenAPICmd)
}

type templateSummary struct {
	ID string `json:"id"`
	model.Metadata
}

func summaries(records []model.TemplateRecord) []templateSummary {
	out := make([]templateSummary, 0, len(records))
	for _, record := range records {
		out = append(out, templateSummary{ID: record.ID, Metadata: record.Metadata()})
	}
	return out
}

func printTemplateTable(w io.Writer, records []model.TemplateRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tFIELDS\tCOMPLEXITY")
	for _, record := range records {
		meta := record.Metadata()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", record.ID, meta.Title, meta.Category, meta.FieldCount, meta.Complexity)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
