package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/Jai-Kumar786/YouTube-RAG-project/config"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/chunk"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/ingest"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/llm"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/retriever"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/store"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

// Run wires every dependency and serves the HTTP API until the listener
// stops.
func Run(cfg *appconfig.Config) error {
	e := newEcho()

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Storage.Postgres.DSN(), cfg.LLM.EmbeddingDimensions, cfg.Chunking.Overfetch)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
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
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		source = transcript.NewCache(source, rdb, cfg.Storage.Redis.TTL, nil)
	}

	pipeline := ingest.New(source, provider, st, ingest.Options{
		ChunkSize:       cfg.Chunking.ChunkSize,
		ChunkOverlap:    cfg.Chunking.ChunkOverlap,
		WriterBatchSize: cfg.LLM.WriterBatchSize,
		Dimensions:      cfg.LLM.EmbeddingDimensions,
		SizeFunc:        chunk.TokenCounter(),
	}, nil)
	ret := retriever.New(provider, st, cfg.LLM.EmbeddingDimensions)

	h := &RAGHandler{
		Pipeline:    pipeline,
		Retriever:   ret,
		Provider:    provider,
		Store:       st,
		DefaultTopK: cfg.Chunking.TopK,
		Logger:      log.New(log.Writer(), "[API] ", log.LstdFlags),
	}
	h.Register(e.Group("/api"))

	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newEcho builds the echo instance with the shared middleware and the unified
// JSON error handler. Split out so handler tests can reuse it.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}
