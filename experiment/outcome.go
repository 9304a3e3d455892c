// Package experiment defines the records produced by evaluating a strategy on
// a sample: the per-strategy Outcome and the consolidated WideRecord.
package experiment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Reserved keys present in every persisted record.
const (
	KeyQuestion    = "question"
	KeyHumanAnswer = "human_answer"
	KeyGrade       = "grade"
)

// ErrInvalidOutcome is returned when an Outcome cannot be built or decoded.
var ErrInvalidOutcome = errors.New("invalid outcome")

// Field is one named model-output text of an Outcome.
type Field struct {
	Name string
	Text string
}

// Outcome is the immutable result of one strategy on one sample. It holds the
// original question and human answer, the strategy's output fields in
// declaration order, and a 0/1 grade.
type Outcome struct {
	question    string
	humanAnswer string
	fields      []Field
	grade       int
}

// NewOutcome validates and builds an Outcome. fields must be non-empty with
// unique, non-reserved names; grade must be 0 or 1.
func NewOutcome(question, humanAnswer string, fields []Field, grade int) (Outcome, error) {
	if grade != 0 && grade != 1 {
		return Outcome{}, fmt.Errorf("%w: grade %d", ErrInvalidOutcome, grade)
	}
	if len(fields) == 0 {
		return Outcome{}, fmt.Errorf("%w: no fields", ErrInvalidOutcome)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		switch {
		case f.Name == "":
			return Outcome{}, fmt.Errorf("%w: empty field name", ErrInvalidOutcome)
		case f.Name == KeyQuestion, f.Name == KeyHumanAnswer, f.Name == KeyGrade:
			return Outcome{}, fmt.Errorf("%w: reserved field name %q", ErrInvalidOutcome, f.Name)
		case seen[f.Name]:
			return Outcome{}, fmt.Errorf("%w: duplicate field %q", ErrInvalidOutcome, f.Name)
		}
		seen[f.Name] = true
	}
	return Outcome{
		question:    question,
		humanAnswer: humanAnswer,
		fields:      append([]Field(nil), fields...),
		grade:       grade,
	}, nil
}

// Question returns the sample question.
func (o Outcome) Question() string { return o.question }

// HumanAnswer returns the reference answer, including its reasoning.
func (o Outcome) HumanAnswer() string { return o.humanAnswer }

// Grade returns 0 or 1.
func (o Outcome) Grade() int { return o.grade }

// Fields returns a copy of the output fields in order.
func (o Outcome) Fields() []Field {
	return append([]Field(nil), o.fields...)
}

// Text returns the text of the named field.
func (o Outcome) Text(name string) (string, bool) {
	for _, f := range o.fields {
		if f.Name == name {
			return f.Text, true
		}
	}
	return "", false
}

// FinalAnswer returns the last field, the one that was graded.
func (o Outcome) FinalAnswer() string {
	if len(o.fields) == 0 {
		return ""
	}
	return o.fields[len(o.fields)-1].Text
}

// MarshalJSON writes the keys in the order question, human_answer, fields,
// grade.
func (o Outcome) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeKV(&buf, KeyQuestion, o.question)
	buf.WriteByte(',')
	writeKV(&buf, KeyHumanAnswer, o.humanAnswer)
	for _, f := range o.fields {
		buf.WriteByte(',')
		writeKV(&buf, f.Name, f.Text)
	}
	buf.WriteByte(',')
	writeKV(&buf, KeyGrade, o.grade)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a record written by MarshalJSON, keeping the field order
// found in the input.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	var (
		question, humanAnswer string
		fields                []Field
		grade                 *int
	)
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case KeyQuestion:
			err = dec.Decode(&question)
		case KeyHumanAnswer:
			err = dec.Decode(&humanAnswer)
		case KeyGrade:
			err = dec.Decode(&grade)
		default:
			var text string
			err = dec.Decode(&text)
			fields = append(fields, Field{Name: key, Text: text})
		}
		if err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrInvalidOutcome, key, err)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	if grade == nil {
		return fmt.Errorf("%w: missing grade", ErrInvalidOutcome)
	}

	out, err := NewOutcome(question, humanAnswer, fields, *grade)
	if err != nil {
		return err
	}
	*o = out
	return nil
}

func writeKV(buf *bytes.Buffer, key string, value any) {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: %w", ErrInvalidOutcome, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidOutcome, want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOutcome, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected key, got %v", ErrInvalidOutcome, tok)
	}
	return key, nil
}
