package main

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded ingestion runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent ingestion runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		store, closeFn := runStore()
		defer closeFn()

		ctx := cmd.Context()
		ids, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		out := make([]*usecase.RunRecord, 0, len(ids))
		for _, id := range ids {
			rec, err := store.Get(ctx, id)
			if errors.Is(err, cache.ErrRunNotFound) {
				continue // expired
			}
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return printJSON(cmd, out)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one ingestion run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn := runStore()
		defer closeFn()

		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, rec)
	},
}

func runStore() (*cache.RunStore, func()) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return cache.NewRunStore(client, cfg.Redis.RunTTL), func() { client.Close() }
}

func init() {
	runsListCmd.Flags().Int("limit", 10, "number of runs to print")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
