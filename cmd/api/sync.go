package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull leads from remote sources",
}

var syncFormsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Run one ingestion pass over the configured lead-form pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		pageIDs, _ := cmd.Flags().GetStringSlice("page-ids")
		if len(pageIDs) == 0 {
			pageIDs = cfg.LeadForms.PageIDs
		}
		if errs := usecase.ValidatePageIDs(pageIDs); len(errs) > 0 {
			return errs[0]
		}
		if cfg.LeadForms.AccessToken == "" {
			return eris.New("leadforms.access_token is required")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.ingest.Execute(ctx, a.formsSource(pageIDs))
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

func init() {
	syncFormsCmd.Flags().StringSlice("page-ids", nil, "pages to read (defaults to leadforms.page_ids)")
	syncCmd.AddCommand(syncFormsCmd)
	rootCmd.AddCommand(syncCmd)
}
