package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/chunk"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/llm"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/store"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

// ChunkStore is the slice of the vector store the pipeline writes through.
type ChunkStore interface {
	DeleteBySource(ctx context.Context, sourceID string) (int64, error)
	InsertChunks(ctx context.Context, records []store.Record) (int, error)
}

// Options tune one pipeline instance.
type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	WriterBatchSize int
	Dimensions      int
	SizeFunc        chunk.SizeFunc
}

// Result summarises one ingestion.
type Result struct {
	SourceID      string `json:"source_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// Pipeline runs the full ingestion path for one video: fetch segments, chunk
// and align the transcript, embed in batches, then replace the source's rows.
type Pipeline struct {
	source   transcript.Fetcher
	provider llm.Provider
	store    ChunkStore
	opts     Options
	logger   *log.Logger
}

// New builds an ingestion pipeline.
func New(source transcript.Fetcher, provider llm.Provider, st ChunkStore, opts Options, logger *log.Logger) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.WriterBatchSize <= 0 {
		opts.WriterBatchSize = 32
	}
	if opts.SizeFunc == nil {
		opts.SizeFunc = chunk.CharCount
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Pipeline{source: source, provider: provider, store: st, opts: opts, logger: logger}
}

// Ingest processes one video URL or bare id. Re-ingesting a known source
// deletes its previous rows before inserting, so the call is idempotent by
// convention.
func (p *Pipeline) Ingest(ctx context.Context, url string) (Result, error) {
	sourceID, err := transcript.ExtractVideoID(url)
	if err != nil {
		return Result{}, err
	}

	segments, err := p.source.Fetch(ctx, sourceID)
	if err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("fetch transcript: %w", err)
	}

	text := transcript.Join(segments)
	if text == "" {
		return Result{SourceID: sourceID}, fmt.Errorf("video %s: %w", sourceID, transcript.ErrNoTranscript)
	}
	p.logger.Printf("fetched transcript for %s (%d chars, %d segments)", sourceID, len(text), len(segments))

	raws, err := chunk.Split(text, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if err != nil {
		return Result{SourceID: sourceID}, err
	}
	if len(raws) == 0 {
		return Result{SourceID: sourceID}, nil
	}

	idx := chunk.NewSegmentIndex(segments)
	chunks, err := chunk.Assemble(raws, text, idx, sourceID, p.opts.SizeFunc)
	if err != nil {
		return Result{SourceID: sourceID}, err
	}
	p.logger.Printf("created %d chunks for %s", len(chunks), sourceID)

	vectors, err := p.embedAll(ctx, chunks)
	if err != nil {
		return Result{SourceID: sourceID}, err
	}

	ingestID := uuid.NewString()
	records := make([]store.Record, len(chunks))
	for i, c := range chunks {
		records[i] = store.Record{
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata: map[string]interface{}{
				"source_id":   c.SourceID,
				"chunk_index": c.Index,
				"token_count": c.TokenCount,
				"start_time":  c.Start,
				"end_time":    c.End,
				"ingest_id":   ingestID,
			},
		}
	}

	if deleted, err := p.store.DeleteBySource(ctx, sourceID); err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("clear previous chunks: %w", err)
	} else if deleted > 0 {
		p.logger.Printf("replaced %d previous chunks for %s", deleted, sourceID)
	}

	inserted, err := p.store.InsertChunks(ctx, records)
	if err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("store chunks: %w", err)
	}
	return Result{SourceID: sourceID, ChunksCreated: inserted}, nil
}

// embedAll batches provider calls by WriterBatchSize, preserving order. Any
// batch failure aborts the whole ingestion before the store is touched.
func (p *Pipeline) embedAll(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.Content
	}

	batchSize := p.opts.WriterBatchSize
	vectors := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := inputs[start:end]
		resp, err := p.provider.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(resp) != len(batch) {
			return nil, fmt.Errorf("embed chunks: expected %d vectors, got %d", len(batch), len(resp))
		}
		vectors = append(vectors, resp...)
	}

	if p.opts.Dimensions > 0 {
		for i, vec := range vectors {
			if len(vec) != p.opts.Dimensions {
				return nil, fmt.Errorf("chunk %d embedding has %d dimensions, want %d: %w",
					i, len(vec), p.opts.Dimensions, store.ErrDimensionMismatch)
			}
		}
	}
	return vectors, nil
}
