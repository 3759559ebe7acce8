package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	insertSQL = regexp.QuoteMeta(`
INSERT INTO transcript_chunks (content, embedding, metadata)
VALUES ($1,$2::vector,$3)
`)
	searchSQL = regexp.QuoteMeta(`
SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS score
FROM transcript_chunks
ORDER BY embedding <=> $1::vector, id
LIMIT $2
`)
)

func newMockStore(t *testing.T, dims int) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, dims, 0), mock
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS transcript_chunks`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX idx_chunks_embedding`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertChunks(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertSQL)
	prep.ExpectExec().
		WithArgs("first chunk", "[0.1,0.2]", []byte(`{"source_id":"vid123"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("second chunk", "[0.3,0.4]", []byte(`{"source_id":"vid123"}`)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	records := []Record{
		{Content: "first chunk", Embedding: []float32{0.1, 0.2}, Metadata: map[string]interface{}{"source_id": "vid123"}},
		{Content: "second chunk", Embedding: []float32{0.3, 0.4}, Metadata: map[string]interface{}{"source_id": "vid123"}},
	}
	n, err := s.InsertChunks(context.Background(), records)
	if err != nil {
		t.Fatalf("InsertChunks: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows written, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertChunksDimensionMismatch(t *testing.T) {
	s, _ := newMockStore(t, 2)

	records := []Record{
		{Content: "bad", Embedding: []float32{0.1, 0.2, 0.3}},
	}
	if _, err := s.InsertChunks(context.Background(), records); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestInsertChunksRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertSQL)
	prep.ExpectExec().
		WithArgs("first chunk", "[0.1,0.2]", []byte(`{"source_id":"vid123"}`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	records := []Record{
		{Content: "first chunk", Embedding: []float32{0.1, 0.2}, Metadata: map[string]interface{}{"source_id": "vid123"}},
	}
	if _, err := s.InsertChunks(context.Background(), records); err == nil {
		t.Fatal("expected insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertChunksEmpty(t *testing.T) {
	s, mock := newMockStore(t, 2)

	n, err := s.InsertChunks(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("InsertChunks(nil) = (%d, %v), want (0, nil)", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for empty input: %v", err)
	}
}

func TestSearch(t *testing.T) {
	s, mock := newMockStore(t, 2)

	rows := sqlmock.NewRows([]string{"id", "content", "metadata", "score"}).
		AddRow(int64(7), "closest", []byte(`{"source_id":"vid123"}`), 0.987654321).
		AddRow(int64(3), "second", []byte(`{"source_id":"other"}`), 0.5)
	mock.ExpectQuery(searchSQL).WithArgs("[0.1,0.2]", 2).WillReturnRows(rows)

	results, err := s.Search(context.Background(), []float32{0.1, 0.2}, 2, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 7 || results[0].Content != "closest" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	// similarity is rounded to 4 decimal digits
	if results[0].Score != 0.9877 {
		t.Fatalf("score not rounded: %v", results[0].Score)
	}
	if got := results[0].Metadata["source_id"]; got != "vid123" {
		t.Fatalf("metadata not decoded: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSourceFilterOverfetches(t *testing.T) {
	s, mock := newMockStore(t, 2)

	// topK=2 with a source filter queries topK*overfetch candidates
	rows := sqlmock.NewRows([]string{"id", "content", "metadata", "score"}).
		AddRow(int64(1), "a", []byte(`{"source_id":"other"}`), 0.9).
		AddRow(int64(2), "b", []byte(`{"source_id":"vid123"}`), 0.8).
		AddRow(int64(3), "c", []byte(`{"source_id":"other"}`), 0.7).
		AddRow(int64(4), "d", []byte(`{"source_id":"vid123"}`), 0.6).
		AddRow(int64(5), "e", []byte(`{"source_id":"vid123"}`), 0.5)
	mock.ExpectQuery(searchSQL).WithArgs("[0.1,0.2]", 8).WillReturnRows(rows)

	results, err := s.Search(context.Background(), []float32{0.1, 0.2}, 2, "vid123")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 filtered results, got %d", len(results))
	}
	if results[0].ID != 2 || results[1].ID != 4 {
		t.Fatalf("unexpected filtered ids: %d, %d", results[0].ID, results[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	s, _ := newMockStore(t, 2)

	if _, err := s.Search(context.Background(), []float32{0.1}, 3, ""); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchZeroTopK(t *testing.T) {
	s, mock := newMockStore(t, 2)

	results, err := s.Search(context.Background(), []float32{0.1, 0.2}, 0, "")
	if err != nil || results != nil {
		t.Fatalf("Search with topK=0 = (%v, %v), want (nil, nil)", results, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for topK=0: %v", err)
	}
}

func TestHasSource(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM transcript_chunks WHERE metadata->>'source_id' = $1)`)).
		WithArgs("vid123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.HasSource(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("HasSource: %v", err)
	}
	if !ok {
		t.Fatal("expected source to exist")
	}
}

func TestDeleteBySource(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM transcript_chunks WHERE metadata->>'source_id' = $1`)).
		WithArgs("vid123").
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := s.DeleteBySource(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", deleted)
	}
}

func TestDeleteAll(t *testing.T) {
	s, mock := newMockStore(t, 2)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM transcript_chunks`)).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := s.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if deleted != 42 {
		t.Fatalf("expected 42 deleted rows, got %d", deleted)
	}
}

func TestVectorLiteralRoundTrip(t *testing.T) {
	lit, err := encodeVectorLiteral([]float32{0.1, 0.2, -1.5})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if lit != "[0.1,0.2,-1.5]" {
		t.Fatalf("unexpected literal: %q", lit)
	}
	vec, err := decodeVectorLiteral(lit)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 || vec[1] != 0.2 || vec[2] != -1.5 {
		t.Fatalf("round trip mismatch: %v", vec)
	}

	if _, err := encodeVectorLiteral(nil); err == nil {
		t.Fatal("expected error for empty vector")
	}
}
