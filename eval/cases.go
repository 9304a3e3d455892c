package eval

import "io"

// Cases is an iterator over evaluation inputs.
// Implementations must return io.EOF when iteration is complete. Any other
// error is counted as a failed case and iteration continues.
type Cases[I any] interface {
	// Next returns the next input, or io.EOF if there are no more.
	Next() (I, error)
}

// NewCases creates a Cases iterator over a slice held in memory.
func NewCases[I any](inputs []I) Cases[I] {
	return &sliceCases[I]{inputs: inputs}
}

type sliceCases[I any] struct {
	inputs []I
	index  int
}

func (s *sliceCases[I]) Next() (I, error) {
	if s.index >= len(s.inputs) {
		var zero I
		return zero, io.EOF
	}

	in := s.inputs[s.index]
	s.index++
	return in, nil
}
