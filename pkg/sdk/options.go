package vecvogue

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	indexPath string
	metaPath  string

	embedder      Embedder
	imageEmbedder ImageEmbedder
	scorer        Scorer

	defaultTopK     int
	maxTopK         int
	overfetchFactor int
	rerankTimeout   time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCatalog sets the index and metadata files written by vecvogue-index.
func WithCatalog(indexPath, metaPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPath = indexPath
		c.metaPath = metaPath
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithImageEmbedder enables image queries.
func WithImageEmbedder(e ImageEmbedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.imageEmbedder = e
	})
}

// WithReranker enables reranking. Without it, Rerank queries return the
// retrieval order.
func WithReranker(s Scorer) Option {
	return optionFunc(func(c *clientConfig) {
		c.scorer = s
	})
}

// WithTopK sets the default and maximum number of results.
// Defaults: 6 and 100.
func WithTopK(defaultTopK, maxTopK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
	})
}

// WithOverfetchFactor sets how many candidates per result are scanned
// before the gender filter. Default: 3.
func WithOverfetchFactor(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.overfetchFactor = n
	})
}

// WithRerankTimeout bounds a single rerank call. Zero means no timeout.
func WithRerankTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerankTimeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
