// Package flat stores unit-normalized vectors in a single immutable file and
// answers exact inner-product top-k queries over them.
//
// File layout (little endian):
//
//	magic      [8]byte  "VVGIDX01"
//	dim        uint32
//	reserved   uint32
//	count      uint64
//	metaDigest uint64   xxhash64 of the paired metadata file
//	buildID    [16]byte
//	vectors    count*dim float32, row-major
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const headerSize = 48

var magic = [8]byte{'V', 'V', 'G', 'I', 'D', 'X', '0', '1'}

// Sentinel errors for index operations.
var (
	ErrBadFormat   = errors.New("flat: bad index format")
	ErrDimMismatch = errors.New("flat: vector dimension mismatch")
)

type header struct {
	Magic      [8]byte
	Dim        uint32
	Reserved   uint32
	Count      uint64
	MetaDigest uint64
	BuildID    [16]byte
}

// Index is a read-only, in-memory flat vector index. Safe for concurrent Search.
type Index struct {
	dim        int
	count      int
	metaDigest uint64
	buildID    uuid.UUID
	data       []float32

	parallelThreshold int
	shards            int
}

// Hit is one search result: the positional slot and its inner-product score.
type Hit struct {
	Slot  int
	Score float32
}

// Open reads an index file fully into memory.
func Open(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReaderSize(f, 1<<20)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w: %w", ErrBadFormat, err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("%w: unexpected magic %q", ErrBadFormat, h.Magic[:])
	}
	if h.Dim == 0 && h.Count > 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrBadFormat)
	}

	// The header must describe exactly the bytes on disk before anything is allocated.
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}
	payload := uint64(st.Size() - headerSize)
	hi, floats := bits.Mul64(h.Count, uint64(h.Dim))
	if hi != 0 || floats > payload/4 || floats*4 != payload {
		return nil, fmt.Errorf("%w: header declares %d x %d vectors, file holds %d bytes",
			ErrBadFormat, h.Count, h.Dim, payload)
	}

	data := make([]float32, floats)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("read vectors: %w: %w", ErrBadFormat, err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after %d vectors", ErrBadFormat, h.Count)
	}

	idx := &Index{
		dim:        int(h.Dim),
		count:      int(h.Count),
		metaDigest: h.MetaDigest,
		buildID:    uuid.UUID(h.BuildID),
		data:       data,
	}
	defaultOptions(idx)
	for _, o := range opts {
		o(idx)
	}
	return idx, nil
}

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Len returns the number of stored vectors.
func (x *Index) Len() int { return x.count }

// MetaDigest returns the digest of the metadata file this index was built with.
func (x *Index) MetaDigest() uint64 { return x.metaDigest }

// BuildID identifies the build that produced the file.
func (x *Index) BuildID() uuid.UUID { return x.buildID }

// Write stores vectors at path atomically: a temp file in the same directory
// is synced and renamed over path. All vectors must have length dim.
func Write(path string, dim int, vectors [][]float32, metaDigest uint64) (uuid.UUID, error) {
	for i, v := range vectors {
		if len(v) != dim {
			return uuid.Nil, fmt.Errorf("vector %d: %w: got %d, want %d", i, ErrDimMismatch, len(v), dim)
		}
	}

	buildID := uuid.New()
	h := header{
		Magic:      magic,
		Dim:        uint32(dim),
		Count:      uint64(len(vectors)),
		MetaDigest: metaDigest,
		BuildID:    buildID,
	}

	err := writeAtomic(path, func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, v := range vectors {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return buildID, nil
}

// writeAtomic writes through fill into a temp file next to path and renames it into place.
func writeAtomic(path string, fill func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriterSize(tmp, 1<<20)
	if err := fill(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}

// WriteFileAtomic writes data to path with the same temp-and-rename protocol as Write.
func WriteFileAtomic(path string, data []byte) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err //nolint:wrapcheck // wrapped by caller
	})
}

// Search returns up to k hits ordered by descending score, ties by ascending slot.
// The query must already be normalized.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimMismatch, len(query), x.dim)
	}
	if k <= 0 || x.count == 0 {
		return nil, nil
	}
	if k > x.count {
		k = x.count
	}

	if x.count < x.parallelThreshold || x.shards <= 1 {
		top := newTopK(k)
		if err := x.scan(ctx, query, 0, x.count, top); err != nil {
			return nil, err
		}
		return top.sorted(), nil
	}
	return x.searchParallel(ctx, query, k)
}

func (x *Index) dot(slot int, query []float32) float32 {
	row := x.data[slot*x.dim : (slot+1)*x.dim]
	var s float32
	for i, q := range query {
		s += row[i] * q
	}
	return s
}

const cancelCheckEvery = 4096

func (x *Index) scan(ctx context.Context, query []float32, from, to int, top *topK) error {
	for slot := from; slot < to; slot++ {
		if (slot-from)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
		}
		top.push(Hit{Slot: slot, Score: x.dot(slot, query)})
	}
	return nil
}
