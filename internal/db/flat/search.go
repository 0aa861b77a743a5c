package flat

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the vector count above which Search fans out across shards.
const DefaultParallelThreshold = 1 << 16

// Option configures an Index at Open time.
type Option func(*Index)

// WithParallelThreshold sets the vector count from which scans run in parallel.
func WithParallelThreshold(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.parallelThreshold = n
		}
	}
}

// WithShards sets the number of parallel scan shards.
func WithShards(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.shards = n
		}
	}
}

func defaultOptions(x *Index) {
	x.parallelThreshold = DefaultParallelThreshold
	x.shards = runtime.GOMAXPROCS(0)
}

func (x *Index) searchParallel(ctx context.Context, query []float32, k int) ([]Hit, error) {
	shards := x.shards
	if shards > x.count {
		shards = x.count
	}
	per := (x.count + shards - 1) / shards
	tops := make([]*topK, shards)

	g, gctx := errgroup.WithContext(ctx)
	for i := range shards {
		from := i * per
		to := min(from+per, x.count)
		top := newTopK(k)
		tops[i] = top
		g.Go(func() error {
			return x.scan(gctx, query, from, to, top)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel scan: %w", err)
	}

	merged := make([]Hit, 0, k*shards)
	for _, t := range tops {
		merged = append(merged, t.hits...)
	}
	sortHits(merged)
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// better orders hits by descending score, then ascending slot.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Slot < b.Slot
}

func sortHits(h []Hit) {
	sort.Slice(h, func(i, j int) bool { return better(h[i], h[j]) })
}

// topK keeps the k best hits seen so far; the root of the heap is the worst kept hit.
type topK struct {
	k    int
	hits []Hit
}

func newTopK(k int) *topK {
	return &topK{k: k, hits: make([]Hit, 0, k)}
}

func (t *topK) Len() int           { return len(t.hits) }
func (t *topK) Less(i, j int) bool { return better(t.hits[j], t.hits[i]) }
func (t *topK) Swap(i, j int)      { t.hits[i], t.hits[j] = t.hits[j], t.hits[i] }
func (t *topK) Push(v any)         { t.hits = append(t.hits, v.(Hit)) }
func (t *topK) Pop() any {
	last := t.hits[len(t.hits)-1]
	t.hits = t.hits[:len(t.hits)-1]
	return last
}

func (t *topK) push(h Hit) {
	if len(t.hits) < t.k {
		heap.Push(t, h)
		return
	}
	if better(h, t.hits[0]) {
		t.hits[0] = h
		heap.Fix(t, 0)
	}
}

func (t *topK) sorted() []Hit {
	out := make([]Hit, len(t.hits))
	copy(out, t.hits)
	sortHits(out)
	return out
}
