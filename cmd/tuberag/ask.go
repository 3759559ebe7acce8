package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jai-Kumar786/YouTube-RAG-project/config"
)

func askCMD() *cobra.Command {
	var cfgPath string
	var topK int
	var sourceID string
	var showSources bool

	var cmd = &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about an ingested video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.store.DB.Close()

			question := args[0]
			if topK <= 0 {
				topK = cfg.Chunking.TopK
			}
			results, err := d.retriever.Retrieve(ctx, question, topK, sourceID)
			if err != nil {
				return err
			}

			excerpts := make([]string, len(results))
			for i, r := range results {
				excerpts[i] = r.Content
			}
			answer, err := d.provider.Answer(ctx, question, excerpts)
			if err != nil {
				return err
			}

			fmt.Println(answer)
			if showSources {
				fmt.Println("\nSources used:")
				for i, r := range results {
					content := r.Content
					if len(content) > 120 {
						content = content[:120] + "..."
					}
					fmt.Printf("  [%d] (score: %.4f) %s\n", i+1, r.Score, content)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	cmd.Flags().StringVar(&sourceID, "source", "", "restrict retrieval to one video id")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "show the source excerpts used")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
