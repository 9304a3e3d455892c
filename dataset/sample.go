// Package dataset loads word-problem samples from JSON lines files or from the
// Hugging Face datasets server.
package dataset

import "errors"

// Sample is one word problem. Answer holds the human reasoning followed by a
// line "#### <short answer>".
type Sample struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var errInvalidSample = errors.New("invalid sample")
