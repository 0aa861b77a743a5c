package domain

import "errors"

var (
	// ErrArtifactMissing signals that the index or metadata file does not exist.
	ErrArtifactMissing = errors.New("catalog artifact missing")
	// ErrIndexMismatch signals an index and metadata table from different builds.
	ErrIndexMismatch = errors.New("index and metadata mismatch")
	// ErrVectorDimMismatch signals a query vector of the wrong dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrImageUnsupported signals that no image embedder is configured.
	ErrImageUnsupported = errors.New("image queries not supported")
	// ErrRerankFailed signals a relevance model failure.
	ErrRerankFailed = errors.New("rerank failed")
	// ErrInvalidRequest signals a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")
)
