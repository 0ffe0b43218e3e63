package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-leads/internal/infra/upload"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Ingest leads from a local source",
}

var importCSVCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Ingest a CSV export with a header row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.ingest.Execute(ctx, upload.NewCSVSource(f, cfg.Upload.MaxBytes))
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

func init() {
	importCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(importCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
