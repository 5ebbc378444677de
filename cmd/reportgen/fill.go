package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/tui"
)

var (
	fillValues string
	fillReport string
	fillSave   bool
	fillGroups []string
	fillOut    string
)

var fillCmd = &cobra.Command{
	Use:   "fill [pageID]",
	Short: "Fill in a report page interactively",
	Long: `Prompt for every field of a report page in the terminal. Existing values,
from --values or a stored --report, are offered as defaults. The collected
values are printed as JSON and, with --report or --save, written to the store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := tui.New(
			tui.WithPromptDriver(tui.NewSurveyDriver(os.Stderr)),
			tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
		)
		if err != nil {
			return err
		}
		a, err := newApp(appOptions{store: true, extra: []render.Renderer{prompts}})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		values, storedPage, err := a.loadValues(ctx, fillReport, fillValues, nil)
		if err != nil {
			return err
		}
		pageID, err := pageIDFrom(args, storedPage)
		if err != nil {
			return err
		}

		result, err := a.pipeline.Preview(ctx, orchestrator.Request{
			PageID:        pageID,
			Values:        values,
			Renderer:      tui.Name,
			RenderOptions: render.RenderOptions{Subset: render.FieldSubset{Groups: fillGroups}},
		})
		if err != nil {
			return err
		}

		var filled model.Values
		if err := json.Unmarshal(result.Output, &filled); err != nil {
			return fmt.Errorf("decode filled values: %w", err)
		}
		// A group subset only prompts for part of the page.
		merged := values.Clone()
		for key, value := range filled {
			merged[key] = value
		}

		if err := a.saveFilled(cmd, pageID, merged); err != nil {
			return err
		}
		return writeOutput(fillOut, result.Output)
	},
}

func init() {
	f := fillCmd.Flags()
	f.StringVar(&fillValues, "values", "", "JSON file with initial values")
	f.StringVar(&fillReport, "report", "", "stored report id to load and update")
	f.BoolVar(&fillSave, "save", false, "store the values as a new report")
	f.StringSliceVar(&fillGroups, "groups", nil, "prompt only for these groups")
	f.StringVarP(&fillOut, "output", "o", "-", "output file for the collected values")
}

func (a *app) saveFilled(cmd *cobra.Command, pageID string, values model.Values) error {
	if fillReport == "" && !fillSave {
		return nil
	}
	if a.store == nil {
		return errors.New("saving reports needs store.path")
	}

	ctx := cmd.Context()
	if fillReport != "" {
		id, err := uuid.Parse(fillReport)
		if err != nil {
			return fmt.Errorf("report id %q: %w", fillReport, err)
		}
		if err := a.store.SaveValues(ctx, id, pageID, values); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report %s updated\n", id)
		return nil
	}

	id, err := a.store.CreateReport(ctx, pageID, values)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "report %s saved\n", id)
	return nil
}
