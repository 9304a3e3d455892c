package experiment

import (
	"bytes"
	"fmt"
)

// Column is one optional column of a WideRecord.
type Column struct {
	Name string

	// Grade marks a 0/1 grade column; other columns hold free text.
	Grade bool
}

// Schema is the fixed, ordered column set of a consolidated run.
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema builds a schema. It panics on duplicate or reserved names since
// schemas are declared statically.
func NewSchema(columns ...Column) *Schema {
	s := &Schema{
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == KeyQuestion || c.Name == KeyHumanAnswer {
			panic(fmt.Sprintf("experiment: reserved column %q", c.Name))
		}
		if _, dup := s.index[c.Name]; dup {
			panic(fmt.Sprintf("experiment: duplicate column %q", c.Name))
		}
		s.index[c.Name] = i
	}
	return s
}

// Columns returns the optional columns in order.
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Header returns every column name, starting with question and human_answer.
func (s *Schema) Header() []string {
	h := []string{KeyQuestion, KeyHumanAnswer}
	for _, c := range s.columns {
		h = append(h, c.Name)
	}
	return h
}

// Lookup returns the named column.
func (s *Schema) Lookup(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// WideRecord merges several strategies' outputs for one sample. Columns of
// strategies that did not run or failed stay null.
type WideRecord struct {
	schema      *Schema
	question    string
	humanAnswer string
	values      []any // nil, string or int
}

// NewWideRecord returns a record with every optional column null.
func NewWideRecord(schema *Schema, question, humanAnswer string) *WideRecord {
	return &WideRecord{
		schema:      schema,
		question:    question,
		humanAnswer: humanAnswer,
		values:      make([]any, len(schema.columns)),
	}
}

// Schema returns the record's schema.
func (r *WideRecord) Schema() *Schema { return r.schema }

// Question returns the sample question.
func (r *WideRecord) Question() string { return r.question }

// HumanAnswer returns the reference answer.
func (r *WideRecord) HumanAnswer() string { return r.humanAnswer }

// Set stores text in a text column.
func (r *WideRecord) Set(name, text string) error {
	i, c, err := r.column(name)
	if err != nil {
		return err
	}
	if c.Grade {
		return fmt.Errorf("%w: %q is a grade column", ErrInvalidOutcome, name)
	}
	r.values[i] = text
	return nil
}

// SetGrade stores a 0/1 grade in a grade column.
func (r *WideRecord) SetGrade(name string, grade int) error {
	i, c, err := r.column(name)
	if err != nil {
		return err
	}
	if !c.Grade {
		return fmt.Errorf("%w: %q is not a grade column", ErrInvalidOutcome, name)
	}
	if grade != 0 && grade != 1 {
		return fmt.Errorf("%w: grade %d", ErrInvalidOutcome, grade)
	}
	r.values[i] = grade
	return nil
}

// Text returns a text column's value; ok is false when it is null.
func (r *WideRecord) Text(name string) (text string, ok bool) {
	i, found := r.schema.index[name]
	if !found {
		return "", false
	}
	text, ok = r.values[i].(string)
	return text, ok
}

// Grade returns a grade column's value; ok is false when it is null.
func (r *WideRecord) Grade(name string) (grade int, ok bool) {
	i, found := r.schema.index[name]
	if !found {
		return 0, false
	}
	grade, ok = r.values[i].(int)
	return grade, ok
}

// Cells returns the question, the human answer and every optional column as
// strings in header order. Null columns are nil.
func (r *WideRecord) Cells() []*string {
	cells := make([]*string, 0, len(r.values)+2)
	q, h := r.question, r.humanAnswer
	cells = append(cells, &q, &h)
	for _, v := range r.values {
		switch v := v.(type) {
		case string:
			cells = append(cells, &v)
		case int:
			s := fmt.Sprint(v)
			cells = append(cells, &s)
		default:
			cells = append(cells, nil)
		}
	}
	return cells
}

// MarshalJSON writes every column in header order, null columns as null.
func (r *WideRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeKV(&buf, KeyQuestion, r.question)
	buf.WriteByte(',')
	writeKV(&buf, KeyHumanAnswer, r.humanAnswer)
	for i, c := range r.schema.columns {
		buf.WriteByte(',')
		writeKV(&buf, c.Name, r.values[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *WideRecord) column(name string) (int, Column, error) {
	i, ok := r.schema.index[name]
	if !ok {
		return 0, Column{}, fmt.Errorf("%w: unknown column %q", ErrInvalidOutcome, name)
	}
	return i, r.schema.columns[i], nil
}
