package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// maxLineBytes bounds a single NDJSON record.
const maxLineBytes = 64 << 20

// Stats counts decoded and skipped records.
type Stats struct {
	Decoded int
	Skipped int
	Decoder string
}

// Decode loads a product dump. ".parquet" files are read column-wise; anything
// else is JSON, tried as a whole array first, then as a streamed array that
// stops at the first syntax error, then as newline-delimited objects.
// Records that are not JSON objects are skipped and counted.
func Decode(path string) ([]Record, Stats, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Stats{}, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return nil, Stats{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return readParquet(path)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read dump: %w", err)
	}
	return DecodeJSON(data)
}

// DecodeJSON runs the JSON part of the cascade over an in-memory dump.
func DecodeJSON(data []byte) ([]Record, Stats, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, Stats{}, nil
	}

	if data[0] == '[' {
		if gjson.ValidBytes(data) {
			return walkArray(data)
		}
		return streamArray(data)
	}
	return decodeLines(data)
}

func walkArray(data []byte) ([]Record, Stats, error) {
	st := Stats{Decoder: "gjson"}
	var out []Record

	gjson.ParseBytes(data).ForEach(func(_, v gjson.Result) bool {
		if rec, ok := toRecord(v); ok {
			out = append(out, rec)
			st.Decoded++
		} else {
			st.Skipped++
		}
		return true
	})
	return out, st, nil
}

// streamArray decodes elements until the array breaks. Elements of the wrong
// type are skipped; a syntax error ends the stream.
func streamArray(data []byte) ([]Record, Stats, error) {
	st := Stats{Decoder: "json-stream"}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, st, fmt.Errorf("decode array start: %w", err)
	}

	var out []Record
	for dec.More() {
		var rec Record
		err := dec.Decode(&rec)
		if err == nil {
			if rec == nil {
				st.Skipped++
				continue
			}
			out = append(out, rec)
			st.Decoded++
			continue
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			st.Skipped++
			continue
		}
		// Unrecoverable; keep what was decoded.
		st.Skipped++
		break
	}

	if len(out) == 0 && st.Skipped > 0 {
		return nil, st, errors.New("decode array: no valid records")
	}
	return out, st, nil
}

func decodeLines(data []byte) ([]Record, Stats, error) {
	st := Stats{Decoder: "ndjson"}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 1<<20), maxLineBytes)

	var out []Record
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			st.Skipped++
			continue
		}
		if rec, ok := toRecord(gjson.ParseBytes(line)); ok {
			out = append(out, rec)
			st.Decoded++
		} else {
			st.Skipped++
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return out, st, fmt.Errorf("scan lines: %w", err)
	}
	return out, st, nil
}

func toRecord(v gjson.Result) (Record, bool) {
	if !v.IsObject() {
		return nil, false
	}
	rec, ok := v.Value().(map[string]any)
	return rec, ok
}
