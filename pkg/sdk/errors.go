package vecvogue

import "github.com/kailas-cloud/vecvogue/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrArtifactMissing        = domain.ErrArtifactMissing
	ErrIndexMismatch          = domain.ErrIndexMismatch
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrImageUnsupported       = domain.ErrImageUnsupported
	ErrInvalidRequest         = domain.ErrInvalidRequest
)
