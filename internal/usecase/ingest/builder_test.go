package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/repository/catalog"
)

// fakeEmbedder maps each text to a 2-d vector derived from its length.
type fakeEmbedder struct {
	calls  int
	err    error
	short  bool
	ragged bool
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 3}
		if f.ragged && i == n-1 {
			out[i] = []float32{1, 2, 3}
		}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: n}, nil
}

func artifactPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "catalog.index"), filepath.Join(dir, "meta.json")
}

func sampleRecords() []Record {
	return []Record{
		{"parent_asin": "A1", "title": "Men's Jacket", "price": 80.0},
		{"parent_asin": "A2", "title": "Women's Blouse", "average_rating": 4.6},
		{"parent_asin": "A3", "title": "Beanie"},
	}
}

func TestBuild_WritesLoadablePair(t *testing.T) {
	indexPath, metaPath := artifactPaths(t)
	emb := &fakeEmbedder{}
	b := NewBuilder(emb, 2, zap.NewNop())

	res, err := b.Build(context.Background(), sampleRecords(), indexPath, metaPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Count != 3 || res.Dim != 2 || res.Tokens != 3 {
		t.Errorf("result: %+v", res)
	}
	if emb.calls != 2 {
		t.Errorf("batches: got %d, want 2", emb.calls)
	}

	repo, err := catalog.Load(indexPath, metaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if repo.BuildID() != res.BuildID || repo.Len() != 3 {
		t.Errorf("loaded build %s with %d items", repo.BuildID(), repo.Len())
	}

	cands, err := repo.Search(context.Background(), []float32{float32(len("Beanie")), 3}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if cands[0].Item.ParentASIN != "A3" || cands[0].Item.Slot != 2 {
		t.Errorf("top hit: %+v", cands[0].Item)
	}
	if cands[0].Score < 0.9999 {
		t.Errorf("vectors not normalized, self score %v", cands[0].Score)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		emb     *fakeEmbedder
		recs    []Record
		wantErr error
	}{
		{"no records", &fakeEmbedder{}, nil, nil},
		{"provider failure", &fakeEmbedder{err: domain.ErrEmbeddingProviderError}, sampleRecords(), domain.ErrEmbeddingProviderError},
		{"short batch", &fakeEmbedder{short: true}, sampleRecords(), domain.ErrEmbeddingProviderError},
		{"ragged dims", &fakeEmbedder{ragged: true}, sampleRecords(), domain.ErrVectorDimMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexPath, metaPath := artifactPaths(t)
			_, err := NewBuilder(tt.emb, 10, zap.NewNop()).Build(context.Background(), tt.recs, indexPath, metaPath)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if _, statErr := os.Stat(indexPath); !errors.Is(statErr, os.ErrNotExist) {
				t.Error("failed build must not leave an index behind")
			}
		})
	}
}

func TestInspect(t *testing.T) {
	indexPath, metaPath := artifactPaths(t)
	res, err := NewBuilder(&fakeEmbedder{}, 0, zap.NewNop()).
		Build(context.Background(), sampleRecords(), indexPath, metaPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rep, err := Inspect(indexPath, metaPath)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.BuildID != res.BuildID || rep.Dim != 2 || rep.Vectors != 3 || rep.MetaRecords != 3 {
		t.Errorf("report: %+v", rep)
	}
	if !rep.Consistent() {
		t.Error("fresh build should be consistent")
	}

	if err := os.WriteFile(metaPath, []byte(`[]`), 0o600); err != nil {
		t.Fatal(err)
	}
	rep, err = Inspect(indexPath, metaPath)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Consistent() {
		t.Error("rewritten metadata should be reported inconsistent")
	}
}
