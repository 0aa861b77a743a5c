package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

const parquetBatchRows = 1000

// parquetColumn maps a leaf column to its top-level field.
type parquetColumn struct {
	name string
	list bool
}

// resolveColumns keeps top-level scalar columns and single-level lists;
// nested structs are not part of the product text and are dropped.
func resolveColumns(pf *parquet.File) map[int]parquetColumn {
	cols := make(map[int]parquetColumn)
	for i, path := range pf.Schema().Columns() {
		switch {
		case len(path) == 1:
			cols[i] = parquetColumn{name: path[0]}
		case len(path) == 3 && path[1] == "list":
			cols[i] = parquetColumn{name: path[0], list: true}
		}
	}
	return cols
}

func readParquet(path string) ([]Record, Stats, error) {
	st := Stats{Decoder: "parquet"}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, st, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, st, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, st, fmt.Errorf("open parquet: %w", err)
	}

	cols := resolveColumns(pf)
	var out []Record

	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, parquetBatchRows)

		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				rec := rowToRecord(buf[i], cols)
				if len(rec) == 0 {
					st.Skipped++
					continue
				}
				out = append(out, rec)
				st.Decoded++
			}

			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return out, st, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}

	return out, st, nil
}

func rowToRecord(row parquet.Row, cols map[int]parquetColumn) Record {
	rec := make(Record)
	for _, v := range row {
		col, ok := cols[v.Column()]
		if !ok || v.IsNull() {
			continue
		}
		val := parquetValue(v)
		if val == nil {
			continue
		}
		if col.list {
			list, _ := rec[col.name].([]any)
			rec[col.name] = append(list, val)
			continue
		}
		rec[col.name] = val
	}
	return rec
}

// parquetValue converts to the same Go types encoding/json produces.
func parquetValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return finite(float64(v.Float()))
	case parquet.Double:
		return finite(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return v.String()
	default:
		return nil
	}
}

// finite drops NaN and Inf, which the metadata table cannot encode.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
