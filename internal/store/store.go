package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// DefaultEmbeddingDimensions matches the nomic-embed-text model used by the
// default deployment.
const DefaultEmbeddingDimensions = 768

// DefaultOverfetch multiplies top_k when a source filter is post-applied
// client-side.
const DefaultOverfetch = 4

// ErrDimensionMismatch is returned when a vector's length disagrees with the
// configured embedding dimension. Configuration problem, surfaced before any
// row is written.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Store persists chunk embeddings in Postgres with pgvector and serves
// cosine-similarity searches over them.
type Store struct {
	DB        *sql.DB
	dims      int
	overfetch int
}

// Record is one row to persist: content, its embedding, and metadata that must
// carry source_id.
type Record struct {
	Content   string
	Embedding []float32
	Metadata  map[string]interface{}
}

// SearchResult is one similarity hit. Score is cosine similarity
// (1 - cosine distance) rounded to 4 decimal digits.
type SearchResult struct {
	ID       int64
	Content  string
	Metadata map[string]interface{}
	Score    float64
}

// New opens a Postgres connection and verifies it.
func New(ctx context.Context, dsn string, dims, overfetch int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return NewWithDB(db, dims, overfetch), nil
}

// NewWithDB wraps an existing connection pool; used by tests.
func NewWithDB(db *sql.DB, dims, overfetch int) *Store {
	if dims <= 0 {
		dims = DefaultEmbeddingDimensions
	}
	if overfetch <= 0 {
		overfetch = DefaultOverfetch
	}
	return &Store{DB: db, dims: dims, overfetch: overfetch}
}

// EnsureSchema idempotently creates the pgvector extension, the chunk table
// and its cosine index. Safe to call on every startup; migrations cover the
// same DDL for deployments that prefer explicit schema management.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS transcript_chunks (
    id          SERIAL PRIMARY KEY,
    content     TEXT NOT NULL,
    embedding   vector(%d),
    metadata    JSONB DEFAULT '{}'::jsonb
)`, s.dims)); err != nil {
		return fmt.Errorf("create transcript_chunks: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_indexes
        WHERE indexname = 'idx_chunks_embedding'
    ) THEN
        CREATE INDEX idx_chunks_embedding
        ON transcript_chunks
        USING ivfflat (embedding vector_cosine_ops)
        WITH (lists = 100);
    END IF;
END $$;
`); err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}

// InsertChunks bulk-writes records in a single transaction and returns the
// number of rows written. Dimension mismatches abort before any write.
func (s *Store) InsertChunks(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i, rec := range records {
		if len(rec.Embedding) != s.dims {
			return 0, fmt.Errorf("record %d has %d dimensions, store expects %d: %w",
				i, len(rec.Embedding), s.dims, ErrDimensionMismatch)
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert chunks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO transcript_chunks (content, embedding, metadata)
VALUES ($1,$2::vector,$3)
`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		vectorLiteral, encErr := encodeVectorLiteral(rec.Embedding)
		if encErr != nil {
			err = encErr
			return 0, err
		}
		metaBytes, encErr := json.Marshal(rec.Metadata)
		if encErr != nil {
			err = fmt.Errorf("marshal metadata: %w", encErr)
			return 0, err
		}
		if _, err = stmt.ExecContext(ctx, rec.Content, vectorLiteral, metaBytes); err != nil {
			err = fmt.Errorf("insert chunk: %w", err)
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert chunks: %w", err)
	}
	return len(records), nil
}

// HasSource reports whether any stored chunk belongs to the given source.
func (s *Store) HasSource(ctx context.Context, sourceID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM transcript_chunks WHERE metadata->>'source_id' = $1)
`, sourceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check source %s: %w", sourceID, err)
	}
	return exists, nil
}

// DeleteBySource removes every chunk of one source and returns the count.
// Deleting an unknown source removes nothing and is not an error.
func (s *Store) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
DELETE FROM transcript_chunks WHERE metadata->>'source_id' = $1
`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("delete source %s: %w", sourceID, err)
	}
	return res.RowsAffected()
}

// DeleteAll removes every stored chunk and returns the count.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM transcript_chunks`)
	if err != nil {
		return 0, fmt.Errorf("delete all chunks: %w", err)
	}
	return res.RowsAffected()
}

// Search returns up to topK chunks ranked by cosine similarity, ties broken by
// insertion order. With a sourceID filter it over-fetches topK*overfetch
// candidates and post-filters client-side; if fewer matching candidates exist
// in that window the result holds fewer than topK items. That is a documented
// approximation, not a bug.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, sourceID string) ([]SearchResult, error) {
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("query has %d dimensions, store expects %d: %w",
			len(embedding), s.dims, ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, nil
	}

	limit := topK
	if sourceID != "" {
		limit = topK * s.overfetch
	}
	vecLiteral, err := encodeVectorLiteral(embedding)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS score
FROM transcript_chunks
ORDER BY embedding <=> $1::vector, id
LIMIT $2
`, vecLiteral, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			res       SearchResult
			metaBytes []byte
			score     float64
		)
		if err := rows.Scan(&res.ID, &res.Content, &metaBytes, &score); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		if len(metaBytes) > 0 {
			if err := json.Unmarshal(metaBytes, &res.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		if sourceID != "" && metadataSourceID(res.Metadata) != sourceID {
			continue
		}
		res.Score = roundScore(score)
		results = append(results, res)
		if len(results) == topK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func metadataSourceID(meta map[string]interface{}) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta["source_id"].(string); ok {
		return v
	}
	return ""
}

// roundScore rounds to 4 decimal digits for stable comparisons.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", value, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
