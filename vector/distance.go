package vector

import "fmt"

// SquaredL2 returns the squared Euclidean distance between two vectors,
// accumulated in float64. It is the ranking distance of the brute-force index.
func SquaredL2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: squared L2 dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum, nil
}
