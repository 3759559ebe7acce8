package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jai-Kumar786/YouTube-RAG-project/config"
)

func purgeCMD() *cobra.Command {
	var cfgPath string
	var sourceID string

	var cmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete stored chunks (one source with --source, otherwise all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.store.DB.Close()

			var deleted int64
			if sourceID != "" {
				deleted, err = d.store.DeleteBySource(ctx, sourceID)
			} else {
				deleted, err = d.store.DeleteAll(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d chunks.\n", deleted)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "video id to delete; empty deletes everything")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
