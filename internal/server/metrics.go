package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuberag_chunks_ingested_total",
		Help: "Number of transcript chunks embedded and stored.",
	})
	searchesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuberag_searches_total",
		Help: "Number of similarity searches served.",
	})
)
