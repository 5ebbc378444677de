package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reportgen",
	Short: "Schema-driven report pages: validate, render, fill and export to PDF",
	Long: `reportgen renders report templates described by field schemas.

Templates come from the built-in catalog, an optional templates directory and
the SQLite store. Values can be validated, rendered as HTML, filled in
interactively and exported to PDF through headless Chromium.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reportgen.yaml or ~/.reportgen/reportgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, templatesCmd, validateCmd, renderCmd, exportCmd, fillCmd, configCmd)
}
