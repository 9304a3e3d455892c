// Package store persists evaluation records as JSON lines or as a consolidated
// CSV file, and reads them back for analysis.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const maxLineBytes = 64 << 20

// JSONLWriter appends one JSON object per line. Each record is encoded fully
// before a single write, so concurrent or interrupted runs never leave an
// interleaved line. It is safe for concurrent use.
type JSONLWriter[R any] struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONLWriter writes to w. Close closes w if it is an io.Closer.
func NewJSONLWriter[R any](w io.Writer) *JSONLWriter[R] {
	jw := &JSONLWriter[R]{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// CreateJSONL truncates or creates path.
func CreateJSONL[R any](path string) (*JSONLWriter[R], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return NewJSONLWriter[R](f), nil
}

// Write encodes rec and flushes it.
func (jw *JSONLWriter[R]) Write(rec R) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	jw.mu.Lock()
	defer jw.mu.Unlock()
	if _, err := jw.w.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := jw.w.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (jw *JSONLWriter[R]) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	err := jw.w.Flush()
	if jw.closer != nil {
		err = errors.Join(err, jw.closer.Close())
	}
	return err
}

// ReadJSONL decodes every non-blank line of path. A missing file yields no
// records and no error.
func ReadJSONL[R any](path string) ([]R, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeJSONL[R](f)
}

// DecodeJSONL decodes every non-blank line of r.
func DecodeJSONL[R any](r io.Reader) ([]R, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []R
	for line := 1; sc.Scan(); line++ {
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var rec R
		if err := json.Unmarshal(b, &rec); err != nil {
			return out, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
