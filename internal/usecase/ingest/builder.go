package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/logger"
	"github.com/kailas-cloud/vecvogue/internal/repository/catalog"
)

// DefaultBatchSize is the number of products embedded per progress step.
const DefaultBatchSize = 2000

// Result summarizes a finished build.
type Result struct {
	BuildID  uuid.UUID
	Count    int
	Dim      int
	Tokens   int
	Duration time.Duration
}

// Builder embeds product records and writes the paired index artifacts.
type Builder struct {
	embedder  domain.BatchEmbedder
	batchSize int
	logger    *zap.Logger
}

// NewBuilder creates a Builder. batchSize <= 0 means DefaultBatchSize.
func NewBuilder(embedder domain.BatchEmbedder, batchSize int, logger *zap.Logger) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{embedder: embedder, batchSize: batchSize, logger: logger}
}

// Build embeds every record, L2-normalizes the vectors and saves the index and
// metadata as a pair. Slot i of the index is records[i].
func (b *Builder) Build(ctx context.Context, records []Record, indexPath, metaPath string) (Result, error) {
	if len(records) == 0 {
		return Result{}, errors.New("build: no products to index")
	}

	log := logger.FromContextOr(ctx, b.logger)
	start := time.Now()

	vectors := make([][]float32, 0, len(records))
	items := make([]domain.CatalogItem, 0, len(records))
	dim := 0
	tokens := 0
	totalBatches := (len(records)-1)/b.batchSize + 1

	for i := 0; i < len(records); i += b.batchSize {
		end := min(i+b.batchSize, len(records))
		batch := records[i:end]
		batchNum := i/b.batchSize + 1

		if batchNum <= 3 || batchNum%5 == 0 || batchNum == totalBatches {
			log.Info("Embedding batch",
				zap.Int("batch", batchNum),
				zap.Int("total", totalBatches),
				zap.Int("products", len(batch)),
			)
		}

		texts := make([]string, len(batch))
		for j, rec := range batch {
			texts[j] = DocText(rec)
		}

		res, err := b.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return Result{}, fmt.Errorf("build: embed batch %d: %w", batchNum, err)
		}
		if len(res.Embeddings) != len(batch) {
			return Result{}, fmt.Errorf("build: batch %d: %w: got %d embeddings for %d texts",
				batchNum, domain.ErrEmbeddingProviderError, len(res.Embeddings), len(batch))
		}
		tokens += res.TotalTokens

		for j, vec := range res.Embeddings {
			if dim == 0 {
				dim = len(vec)
			}
			if len(vec) == 0 || len(vec) != dim {
				return Result{}, fmt.Errorf("build: product %d: %w: got %d, want %d",
					i+j, domain.ErrVectorDimMismatch, len(vec), dim)
			}
			vectors = append(vectors, domain.Normalize(vec))
			items = append(items, ToItem(batch[j]))
		}
	}

	buildID, err := catalog.Save(indexPath, metaPath, dim, vectors, items)
	if err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	return Result{
		BuildID:  buildID,
		Count:    len(items),
		Dim:      dim,
		Tokens:   tokens,
		Duration: time.Since(start),
	}, nil
}
