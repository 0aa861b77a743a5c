package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecvogue/internal/metrics"
	openaiEmb "github.com/kailas-cloud/vecvogue/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecvogue/internal/usecase/embedding"
	"github.com/kailas-cloud/vecvogue/internal/usecase/ingest"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed a product dump and write the index and metadata",
	Long: `Reads a product dump (.json array, NDJSON or .parquet), embeds every
product in batches and writes the index and metadata files as a pair.
Malformed records are skipped and counted.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("data", "", "product dump path (default: catalog.data_path)")
	buildCmd.Flags().String("index", "", "index output path (default: catalog.index_path)")
	buildCmd.Flags().String("meta", "", "metadata output path (default: catalog.meta_path)")
	buildCmd.Flags().Int("batch-size", 0, "products per embedding batch (default: ingest.batch_size)")
	buildCmd.Flags().Int("limit", 0, "index only the first N products (0 = all)")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	dataPath := flagOr(cmd, "data", cfg.Catalog.DataPath)
	indexPath := flagOr(cmd, "index", cfg.Catalog.IndexPath)
	metaPath := flagOr(cmd, "meta", cfg.Catalog.MetaPath)
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = cfg.Ingest.BatchSize
	}
	limit, _ := cmd.Flags().GetInt("limit")

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	start := time.Now()
	records, stats, err := ingest.Decode(dataPath)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	logger.Info("Products loaded",
		zap.String("path", dataPath),
		zap.String("decoder", stats.Decoder),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	metrics.RegisterEmbeddingMetrics()
	builder := ingest.NewBuilder(buildDocumentEmbedder(), batchSize, logger)

	res, err := builder.Build(ctx, records, indexPath, metaPath)
	if err != nil {
		return err
	}

	logger.Info("Index built",
		zap.String("build_id", res.BuildID.String()),
		zap.Int("products", res.Count),
		zap.Int("dim", res.Dim),
		zap.Int("tokens", res.Tokens),
		zap.Duration("elapsed", res.Duration),
		zap.String("index", indexPath),
		zap.String("meta", metaPath),
	)
	return nil
}

// buildDocumentEmbedder assembles OpenAI -> Instrumented with the ingest rate limit.
// Documents are embedded once, so no cache tier.
func buildDocumentEmbedder() *embeddinguc.InstrumentedEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var opts []embeddinguc.Option
	if rps := cfg.Ingest.RequestsPerSecond; rps > 0 {
		opts = append(opts, embeddinguc.WithRateLimit(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	return embeddinguc.NewInstrumentedEmbedder(base, cfg.Embedding.Provider, cfg.Embedding.Model, logger, opts...)
}

func flagOr(cmd *cobra.Command, name, def string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return def
}
