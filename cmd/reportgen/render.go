package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
)

var (
	renderValues     string
	renderSets       []string
	renderReport     string
	renderRenderer   string
	renderStandalone bool
	renderGroups     []string
	renderOut        string
)

var renderCmd = &cobra.Command{
	Use:   "render [pageID]",
	Short: "Render a report page as HTML",
	Long: `Render a report page. Invalid values still render; their messages are
shown next to the fields and summarised on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()

		values, storedPage, err := a.loadValues(cmd.Context(), renderReport, renderValues, renderSets)
		if err != nil {
			return err
		}
		pageID, err := pageIDFrom(args, storedPage)
		if err != nil {
			return err
		}

		result, err := a.pipeline.Preview(cmd.Context(), orchestrator.Request{
			PageID:   pageID,
			Values:   values,
			Renderer: renderRenderer,
			RenderOptions: render.RenderOptions{
				Standalone: renderStandalone,
				Subset:     render.FieldSubset{Groups: renderGroups},
			},
		})
		if err != nil {
			return err
		}
		if !result.Validation.Valid {
			fmt.Fprintf(os.Stderr, "%s: rendered with %d validation problem(s)\n", pageID, len(result.Validation.Errors))
		}
		return writeOutput(renderOut, result.Output)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderValues, "values", "", "JSON file with field values")
	f.StringArrayVar(&renderSets, "set", nil, "field value as key=value (repeatable)")
	f.StringVar(&renderReport, "report", "", "stored report id to load values from")
	f.StringVar(&renderRenderer, "renderer", "", "renderer name (default html)")
	f.BoolVar(&renderStandalone, "standalone", false, "emit a full HTML document")
	f.StringSliceVar(&renderGroups, "groups", nil, "render only these groups")
	f.StringVarP(&renderOut, "output", "o", "-", "output file")
}
