// Package extractor defines the image embedding extractor consumed by the
// wardrobe catalog. Implementations turn raw image bytes into a fixed-length
// feature vector; the catalog stays model-agnostic and only depends on the
// numeric vectors.
package extractor

import (
	"context"
	"fmt"
)

// Extractor converts image bytes into an embedding. Implementations must be
// deterministic for identical input.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float32, error)
}

// Func adapts a function to Extractor.
type Func func(ctx context.Context, image []byte) ([]float32, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// Error reports a failed extraction. It aborts the operation that needed
// the embedding.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("extractor: %v", e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Checked wraps an Extractor so that failures and vectors of the wrong
// dimension come back as *Error. dim <= 0 accepts any non-empty vector.
func Checked(x Extractor, dim int) Extractor {
	return Func(func(ctx context.Context, image []byte) ([]float32, error) {
		vec, err := x.Extract(ctx, image)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return nil, err
			}
			return nil, &Error{Err: err}
		}
		if len(vec) == 0 {
			return nil, &Error{Err: fmt.Errorf("empty embedding")}
		}
		if dim > 0 && len(vec) != dim {
			return nil, &Error{Err: fmt.Errorf("embedding dim %d, want %d", len(vec), dim)}
		}
		return vec, nil
	})
}
