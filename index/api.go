package index

import (
	"fmt"
	"strings"
)

// Metric selects the distance used to rank neighbours.
type Metric uint32

const (
	// L2 ranks by squared Euclidean distance.
	L2 Metric = iota
	// Cosine ranks by cosine distance (1 - cosine similarity).
	Cosine
)

// String returns the configuration name of the metric.
func (m Metric) String() string {
	switch m {
	case L2:
		return "l2"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("metric(%d)", uint32(m))
	}
}

// ParseMetric resolves a configuration name; empty selects L2.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "l2", "euclidean":
		return L2, nil
	case "cos", "cosine":
		return Cosine, nil
	}
	return 0, fmt.Errorf("index: unknown metric %q", name)
}

// Neighbor is a single kNN result. Lower Distance means more similar.
type Neighbor struct {
	Pos      int
	Distance float64
}

// Index defines a positional vector index with an explicit deletion path and
// binary serialization for persistence.
type Index interface {
	// Add appends a vector and returns its position, which equals Len()
	// before the call.
	Add(vec []float32) (int, error)

	// Remove deletes the vector at pos; every position above pos shifts down
	// by one.
	Remove(pos int) error

	// Query returns up to k neighbours ordered by ascending distance. k <= 0
	// returns every candidate.
	Query(query []float32, k int) ([]Neighbor, error)

	// Len reports the number of stored vectors.
	Len() int

	// Vector returns a copy of the vector at pos.
	Vector(pos int) ([]float32, error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
