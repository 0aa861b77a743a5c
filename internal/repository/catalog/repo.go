package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/kailas-cloud/vecvogue/internal/db/flat"
	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// Repo is the read-only pairing of a vector index and its metadata table.
// Slot i of the index and items[i] always describe the same product.
type Repo struct {
	index *flat.Index
	items []domain.CatalogItem
}

// Load opens both artifacts and verifies they come from the same build.
// A missing file yields domain.ErrArtifactMissing; a count or digest
// disagreement yields domain.ErrIndexMismatch.
func Load(indexPath, metaPath string, opts ...flat.Option) (*Repo, error) {
	for _, p := range []string{indexPath, metaPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, p)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	meta, err := os.ReadFile(filepath.Clean(metaPath))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	idx, err := flat.Open(indexPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	if digest := xxhash.Sum64(meta); digest != idx.MetaDigest() {
		return nil, fmt.Errorf("%w: metadata digest %x, index expects %x",
			domain.ErrIndexMismatch, digest, idx.MetaDigest())
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(meta, &items); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(items) != idx.Len() {
		return nil, fmt.Errorf("%w: %d metadata records, %d vectors",
			domain.ErrIndexMismatch, len(items), idx.Len())
	}
	for i := range items {
		if items[i].Slot != i {
			return nil, fmt.Errorf("%w: record %d carries slot %d",
				domain.ErrIndexMismatch, i, items[i].Slot)
		}
	}

	return &Repo{index: idx, items: items}, nil
}

// Save writes the index and metadata as a pair. The metadata is written first;
// the index header records its digest, so a crash between the two renames is
// caught by Load instead of serving misaligned slots.
func Save(indexPath, metaPath string, dim int, vectors [][]float32, items []domain.CatalogItem) (uuid.UUID, error) {
	if len(vectors) != len(items) {
		return uuid.Nil, fmt.Errorf("%w: %d vectors, %d items", domain.ErrIndexMismatch, len(vectors), len(items))
	}
	for i := range items {
		items[i].Slot = i
	}

	meta, err := json.Marshal(items)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := flat.WriteFileAtomic(metaPath, meta); err != nil {
		return uuid.Nil, fmt.Errorf("write metadata: %w", err)
	}

	buildID, err := flat.Write(indexPath, dim, vectors, xxhash.Sum64(meta))
	if err != nil {
		return uuid.Nil, fmt.Errorf("write index: %w", err)
	}
	return buildID, nil
}

// Search returns up to k candidates by descending inner product with vector.
// The vector is copied and normalized; candidates are copies of the metadata.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error) {
	q := domain.Normalize(append([]float32(nil), vector...))

	hits, err := r.index.Search(ctx, q, k)
	if err != nil {
		if errors.Is(err, flat.ErrDimMismatch) {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorDimMismatch, err)
		}
		return nil, fmt.Errorf("index search: %w", err)
	}

	out := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		out[i] = domain.Candidate{
			Item:  r.items[h.Slot].Clone(),
			Score: float64(h.Score),
		}
	}
	return out, nil
}

// Len returns the number of catalog items.
func (r *Repo) Len() int { return len(r.items) }

// Dim returns the vector dimension.
func (r *Repo) Dim() int { return r.index.Dim() }

// BuildID identifies the loaded build.
func (r *Repo) BuildID() uuid.UUID { return r.index.BuildID() }

// Ping reports whether the catalog can serve queries.
func (r *Repo) Ping(_ context.Context) error {
	if r.Len() == 0 {
		return errors.New("catalog is empty")
	}
	return nil
}
