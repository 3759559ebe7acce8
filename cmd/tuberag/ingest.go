package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jai-Kumar786/YouTube-RAG-project/config"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var cmd = &cobra.Command{
		Use:   "ingest <youtube-url>",
		Short: "Fetch, chunk, embed and store a video transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.store.DB.Close()

			res, err := d.pipeline.Ingest(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %s: %d chunks stored.\n", res.SourceID, res.ChunksCreated)
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
