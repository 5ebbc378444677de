package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

var (
	validateValues   string
	validateSets     []string
	validateReport   string
	validateTemplate string
	validateJSON     bool
)

var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [pageID]",
	Short: "Validate report values, or a template document with --template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateTemplate != "" {
			raw, err := os.ReadFile(validateTemplate)
			if err != nil {
				return err
			}
			record, err := catalog.ParseDocument(validateTemplate, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d fields, %s)\n", record.ID, len(record.Fields), record.Metadata().Complexity)
			return nil
		}

		a, err := newApp(appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.Close()

		values, storedPage, err := a.loadValues(cmd.Context(), validateReport, validateValues, validateSets)
		if err != nil {
			return err
		}
		pageID, err := pageIDFrom(args, storedPage)
		if err != nil {
			return err
		}

		result, _, err := a.pipeline.Validate(cmd.Context(), pageID, values)
		if err != nil {
			return err
		}
		if validateJSON {
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printValidation(cmd, pageID, result)
		}
		if !result.Valid {
			return errInvalid
		}
		return nil
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateValues, "values", "", "JSON file with field values")
	f.StringArrayVar(&validateSets, "set", nil, "field value as key=value (repeatable)")
	f.StringVar(&validateReport, "report", "", "stored report id to load values from")
	f.StringVar(&validateTemplate, "template", "", "validate a template document instead of values")
	f.BoolVar(&validateJSON, "json", false, "print the validation result as JSON")
}

func printValidation(cmd *cobra.Command, pageID string, result validation.Result) {
	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintf(out, "%s: valid\n", pageID)
		return
	}
	fmt.Fprintf(out, "%s: %d problem(s)\n", pageID, len(result.Errors))
	byField := result.ByField()
	ids := make([]string, 0, len(byField))
	for id := range byField {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, msg := range byField[id] {
			fmt.Fprintf(out, "  %s: %s\n", id, msg)
		}
	}
}

// pageIDFrom prefers the positional argument over the page stored with a
// report.
func pageIDFrom(args []string, stored string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if stored != "" {
		return stored, nil
	}
	return "", errors.New("page id is required")
}
