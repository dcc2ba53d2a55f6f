package weather

import (
	"context"
	"errors"
)

// ErrMalformed reports a weather payload missing required fields.
var ErrMalformed = errors.New("weather: malformed payload")

// Lookup fetches the current reading for a location.
type Lookup interface {
	Fetch(ctx context.Context, location string) (Reading, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, location string) (Reading, error)

// Fetch calls f.
func (f LookupFunc) Fetch(ctx context.Context, location string) (Reading, error) {
	return f(ctx, location)
}
