package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/chunk"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/ingest"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/store"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

// Ingester runs one ingestion.
type Ingester interface {
	Ingest(ctx context.Context, url string) (ingest.Result, error)
}

// ChunkRetriever serves ranked chunks for a query.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, topK int, sourceID string) ([]store.SearchResult, error)
}

// Answerer turns retrieved excerpts into a natural-language answer.
type Answerer interface {
	Answer(ctx context.Context, question string, excerpts []string) (string, error)
}

// SourceStore covers the management operations on stored sources.
type SourceStore interface {
	HasSource(ctx context.Context, sourceID string) (bool, error)
	DeleteBySource(ctx context.Context, sourceID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// RAGHandler exposes ingest/ask/management endpoints.
type RAGHandler struct {
	Pipeline    Ingester
	Retriever   ChunkRetriever
	Provider    Answerer
	Store       SourceStore
	DefaultTopK int
	Logger      *log.Logger
}

func (h *RAGHandler) Register(g *echo.Group) {
	g.POST("/ingest", h.ingest)
	g.POST("/ask", h.ask)
	g.GET("/sources/:id", h.sourceExists)
	g.DELETE("/sources/:id", h.deleteSource)
	g.DELETE("/sources", h.deleteAll)
}

func (h *RAGHandler) ingest(c echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}

	res, err := h.Pipeline.Ingest(c.Request().Context(), req.URL)
	if err != nil {
		return httpError(err)
	}
	ingestedChunks.Add(float64(res.ChunksCreated))
	h.Logger.Printf("ingested %s: %d chunks", res.SourceID, res.ChunksCreated)
	return c.JSON(http.StatusOK, res)
}

func (h *RAGHandler) ask(c echo.Context) error {
	var req struct {
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
		SourceID string `json:"source_id"`
	}
	if err := c.Bind(&req); err != nil || req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question required")
	}
	if req.TopK <= 0 {
		req.TopK = h.DefaultTopK
	}

	results, err := h.Retriever.Retrieve(c.Request().Context(), req.Question, req.TopK, req.SourceID)
	if err != nil {
		return httpError(err)
	}
	searchesServed.Inc()

	excerpts := make([]string, len(results))
	for i, r := range results {
		excerpts[i] = r.Content
	}
	answer, err := h.Provider.Answer(c.Request().Context(), req.Question, excerpts)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"answer":  answer,
		"results": results,
	})
}

func (h *RAGHandler) sourceExists(c echo.Context) error {
	sourceID := c.Param("id")
	exists, err := h.Store.HasSource(c.Request().Context(), sourceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"source_id": sourceID,
		"exists":    exists,
	})
}

func (h *RAGHandler) deleteSource(c echo.Context) error {
	sourceID := c.Param("id")
	deleted, err := h.Store.DeleteBySource(c.Request().Context(), sourceID)
	if err != nil {
		return httpError(err)
	}
	h.Logger.Printf("deleted %d chunks for %s", deleted, sourceID)
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func (h *RAGHandler) deleteAll(c echo.Context) error {
	deleted, err := h.Store.DeleteAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	h.Logger.Printf("deleted all %d chunks", deleted)
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, transcript.ErrNoTranscript):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, chunk.ErrInvalidOverlap), errors.Is(err, store.ErrDimensionMismatch):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
