// Package oteltest provides an in-memory span exporter and assertion helpers
// for verifying spans emitted by the model client and the evaluation engine.
package oteltest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	attr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Setup returns a synchronous tracer provider that stores spans in memory.
// The provider is not installed globally, so tests using it may run in parallel.
func Setup(t *testing.T) (*sdktrace.TracerProvider, *Exporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)

	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Errorf("Error shutting down tracer provider: %v", err)
		}
	})

	return tp, &Exporter{exporter: exporter, t: t}
}

// Exporter wraps the OTel InMemoryExporter with test helpers.
type Exporter struct {
	exporter *tracetest.InMemoryExporter
	t        *testing.T
}

// Flush returns the spans buffered in memory, in end order, and clears them.
func (e *Exporter) Flush() []Span {
	stubs := e.exporter.GetSpans()
	e.exporter.Reset()

	spans := make([]Span, len(stubs))
	for i, stub := range stubs {
		spans[i] = Span{t: e.t, Stub: stub}
	}
	return spans
}

// Named filters spans by name.
func Named(spans []Span, name string) []Span {
	var out []Span
	for _, s := range spans {
		if s.Stub.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Span is a finished span with assertion helpers.
type Span struct {
	t    *testing.T
	Stub tracetest.SpanStub
}

// Name returns the span's name.
func (s *Span) Name() string {
	return s.Stub.Name
}

// Status returns the span's status.
func (s *Span) Status() sdktrace.Status {
	return s.Stub.Status
}

// Events returns the span's events.
func (s *Span) Events() []sdktrace.Event {
	return s.Stub.Events
}

// IsChildOf reports whether s was started under parent.
func (s *Span) IsChildOf(parent Span) bool {
	return s.Stub.Parent.SpanID() == parent.Stub.SpanContext.SpanID()
}

// AssertFailed asserts the span has an error status and an exception event.
func (s *Span) AssertFailed() {
	s.t.Helper()
	assert.Equal(s.t, codes.Error, s.Stub.Status.Code)
	names := make([]string, 0, len(s.Stub.Events))
	for _, ev := range s.Stub.Events {
		names = append(names, ev.Name)
	}
	assert.Contains(s.t, names, "exception")
}

// AssertAttrEquals asserts that the attribute equals expected.
func (s *Span) AssertAttrEquals(key string, expected any) {
	s.t.Helper()
	s.Attr(key).AssertEquals(expected)
}

// Attrs returns all the span's attributes matching key.
func (s *Span) Attrs(key string) []Attr {
	var attrs []Attr
	for _, kv := range s.Stub.Attributes {
		if string(kv.Key) == key {
			attrs = append(attrs, Attr{t: s.t, Key: key, Value: kv.Value})
		}
	}
	return attrs
}

// Attr returns the attribute matching key and fails if there isn't exactly one.
func (s *Span) Attr(key string) Attr {
	s.t.Helper()
	attrs := s.Attrs(key)
	require.Len(s.t, attrs, 1, "attribute %s", key)
	return attrs[0]
}

// HasAttr reports whether the span has an attribute with the given key.
func (s *Span) HasAttr(key string) bool {
	return len(s.Attrs(key)) > 0
}

// Attr is a span attribute with assertion helpers.
type Attr struct {
	t     *testing.T
	Key   string
	Value attr.Value
}

// String returns the attribute as a string and fails if it is not one.
func (a Attr) String() string {
	a.t.Helper()
	require.Equal(a.t, attr.STRING, a.Value.Type())
	return a.Value.AsString()
}

// AssertEquals asserts the attribute equals expected. Ints are compared as int64.
func (a Attr) AssertEquals(expected any) {
	a.t.Helper()
	switch v := expected.(type) {
	case string:
		assert.Equal(a.t, v, a.String())
	case int:
		assert.Equal(a.t, int64(v), a.Value.AsInt64())
	case int64:
		assert.Equal(a.t, v, a.Value.AsInt64())
	case float64:
		assert.Equal(a.t, v, a.Value.AsFloat64())
	case bool:
		assert.Equal(a.t, v, a.Value.AsBool())
	default:
		assert.Failf(a.t, "unsupported type", "expected type %T is not supported", expected)
	}
}
