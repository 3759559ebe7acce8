package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/Jai-Kumar786/YouTube-RAG-project/config"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/chunk"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/ingest"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/llm"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/retriever"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/store"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

// deps bundles the shared wiring for the one-shot CLI commands.
type deps struct {
	store     *store.Store
	provider  *llm.Client
	pipeline  *ingest.Pipeline
	retriever *retriever.Retriever
}

func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	st, err := store.New(ctx, cfg.Storage.Postgres.DSN(), cfg.LLM.EmbeddingDimensions, cfg.Chunking.Overfetch)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	provider := llm.NewClient(cfg.LLM)

	var source transcript.Fetcher = transcript.NewClient("en", cfg.General.DefaultTimeout)
	if cfg.Storage.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		source = transcript.NewCache(source, rdb, cfg.Storage.Redis.TTL, nil)
	}

	pipeline := ingest.New(source, provider, st, ingest.Options{
		ChunkSize:       cfg.Chunking.ChunkSize,
		ChunkOverlap:    cfg.Chunking.ChunkOverlap,
		WriterBatchSize: cfg.LLM.WriterBatchSize,
		Dimensions:      cfg.LLM.EmbeddingDimensions,
		SizeFunc:        chunk.TokenCounter(),
	}, log.New(log.Writer(), "[INGEST] ", log.LstdFlags))

	return &deps{
		store:     st,
		provider:  provider,
		pipeline:  pipeline,
		retriever: retriever.New(provider, st, cfg.LLM.EmbeddingDimensions),
	}, nil
}
