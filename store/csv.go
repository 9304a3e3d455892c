package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/braintrustdata/prompteval-go/experiment"
)

// ErrHeader is returned when a CSV header does not match the schema.
var ErrHeader = errors.New("csv header mismatch")

// EscapeNewlines replaces backslashes, line feeds and carriage returns with
// the two-character sequences \\, \n and \r. UnescapeNewlines reverses it.
func EscapeNewlines(s string) string {
	if !strings.ContainsAny(s, "\\\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeNewlines reverses EscapeNewlines. Unknown escapes are kept as is.
func UnescapeNewlines(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}

// CSVWriter writes consolidated wide records. Every present field is quoted
// and escaped; null fields are written as empty unquoted cells. It is safe for
// concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	schema *experiment.Schema
	w      *bufio.Writer
	closer io.Closer
}

// NewCSVWriter writes the schema header to w immediately.
func NewCSVWriter(w io.Writer, schema *experiment.Schema) (*CSVWriter, error) {
	cw := &CSVWriter{schema: schema, w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}

	header := schema.Header()
	cells := make([]*string, len(header))
	for i := range header {
		cells[i] = &header[i]
	}
	if err := cw.writeRow(cells); err != nil {
		return nil, err
	}
	return cw, nil
}

// CreateCSV truncates or creates path and writes the header.
func CreateCSV(path string, schema *experiment.Schema) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	cw, err := NewCSVWriter(f, schema)
	if err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

// Write appends rec as one row and flushes it.
func (cw *CSVWriter) Write(rec *experiment.WideRecord) error {
	if rec.Schema() != cw.schema {
		return fmt.Errorf("%w: record schema differs from writer schema", ErrHeader)
	}
	cells := rec.Cells()
	for i, c := range cells {
		if c != nil {
			escaped := EscapeNewlines(*c)
			cells[i] = &escaped
		}
	}
	return cw.writeRow(cells)
}

// Close flushes and closes the underlying writer.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	err := cw.w.Flush()
	if cw.closer != nil {
		err = errors.Join(err, cw.closer.Close())
	}
	return err
}

func (cw *CSVWriter) writeRow(cells []*string) error {
	var line strings.Builder
	for i, c := range cells {
		if i > 0 {
			line.WriteByte(',')
		}
		if c == nil {
			continue
		}
		line.WriteByte('"')
		line.WriteString(strings.ReplaceAll(*c, `"`, `""`))
		line.WriteByte('"')
	}
	line.WriteByte('\n')

	cw.mu.Lock()
	defer cw.mu.Unlock()
	if _, err := cw.w.WriteString(line.String()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := cw.w.Flush(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// ReadCSV reads a file written by CSVWriter. Empty cells read back as null.
// A missing file yields no records and no error.
func ReadCSV(path string, schema *experiment.Schema) ([]*experiment.WideRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f, schema)
}

// DecodeCSV reads wide records from r.
func DecodeCSV(r io.Reader, schema *experiment.Schema) ([]*experiment.WideRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(schema.Header())

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	want := schema.Header()
	for i := range want {
		if header[i] != want[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeader, i, header[i], want[i])
		}
	}

	columns := schema.Columns()
	var out []*experiment.WideRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		rec := experiment.NewWideRecord(schema, UnescapeNewlines(row[0]), UnescapeNewlines(row[1]))
		for i, col := range columns {
			cell := row[i+2]
			if cell == "" {
				continue
			}
			if col.Grade {
				g, err := strconv.Atoi(cell)
				if err != nil {
					return out, fmt.Errorf("column %s: %w", col.Name, err)
				}
				err = rec.SetGrade(col.Name, g)
			} else {
				err = rec.Set(col.Name, UnescapeNewlines(cell))
			}
			if err != nil {
				return out, err
			}
		}
		out = append(out, rec)
	}
}
