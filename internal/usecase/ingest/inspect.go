package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/vecvogue/internal/db/flat"
)

// Report describes a pair of index artifacts without loading the catalog.
type Report struct {
	BuildID     uuid.UUID
	Dim         int
	Vectors     int
	MetaRecords int
	IndexDigest uint64
	MetaDigest  uint64
}

// Consistent reports whether both artifacts come from the same build.
func (r Report) Consistent() bool {
	return r.IndexDigest == r.MetaDigest && r.Vectors == r.MetaRecords
}

// Inspect reads the index header and checks the metadata digest and count.
func Inspect(indexPath, metaPath string) (Report, error) {
	idx, err := flat.Open(indexPath)
	if err != nil {
		return Report{}, fmt.Errorf("open index: %w", err)
	}

	meta, err := os.ReadFile(filepath.Clean(metaPath))
	if err != nil {
		return Report{}, fmt.Errorf("read metadata: %w", err)
	}

	return Report{
		BuildID:     idx.BuildID(),
		Dim:         idx.Dim(),
		Vectors:     idx.Len(),
		MetaRecords: int(gjson.GetBytes(meta, "#").Int()),
		IndexDigest: idx.MetaDigest(),
		MetaDigest:  xxhash.Sum64(meta),
	}, nil
}
