package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/braintrustdata/prompteval-go/store"
)

// LoadJSONL reads samples from a JSON lines file with "question" and "answer"
// keys. A positive limit keeps only the first limit samples.
func LoadJSONL(path string, limit int) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return DecodeJSONL(f, limit)
}

// DecodeJSONL reads samples from r.
func DecodeJSONL(r io.Reader, limit int) ([]Sample, error) {
	samples, err := store.DecodeJSONL[Sample](r)
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i, s := range samples {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
	}
	return truncate(samples, limit), nil
}

func validate(s Sample) error {
	if s.Question == "" {
		return fmt.Errorf("%w: empty question", errInvalidSample)
	}
	if s.Answer == "" {
		return fmt.Errorf("%w: empty answer", errInvalidSample)
	}
	return nil
}

func truncate(samples []Sample, limit int) []Sample {
	if limit > 0 && len(samples) > limit {
		return samples[:limit]
	}
	return samples
}
