package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vec/search"

	"github.com/viant/closet/index"
	"github.com/viant/closet/vector"
)

const headerSize = 12

// Index is a brute-force positional vector index. It is not safe for
// concurrent use; callers serialize access.
type Index struct {
	metric index.Metric
	dim    int
	vecs   [][]float32
	mags   []float32
}

// New creates an empty index ranking by metric. A dim of 0 lets the first
// added vector fix the dimension.
func New(metric index.Metric, dim int) *Index {
	if dim < 0 {
		dim = 0
	}
	return &Index{metric: metric, dim: dim}
}

// Metric returns the ranking metric.
func (i *Index) Metric() index.Metric { return i.metric }

// Dim returns the vector dimension, or 0 before the first vector is added.
func (i *Index) Dim() int { return i.dim }

// Len returns the number of stored vectors.
func (i *Index) Len() int { return len(i.vecs) }

// Build replaces the index content with vectors, in order.
func (i *Index) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		i.vecs, i.mags = nil, nil
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("bruteforce: empty vector")
	}
	if i.dim != 0 && dim != i.dim {
		return fmt.Errorf("bruteforce: vector dim %d != index dim %d", dim, i.dim)
	}
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
	}
	vecs := make([][]float32, len(vectors))
	mags := make([]float32, len(vectors))
	for j := range vectors {
		vecs[j] = append([]float32(nil), vectors[j]...)
		mags[j] = search.Float32s(vecs[j]).Magnitude()
	}
	i.dim = dim
	i.vecs = vecs
	i.mags = mags
	return nil
}

// Add appends a copy of vec and returns its position.
func (i *Index) Add(vec []float32) (int, error) {
	if len(vec) == 0 {
		return 0, errors.New("bruteforce: empty vector")
	}
	if i.dim != 0 && len(vec) != i.dim {
		return 0, fmt.Errorf("bruteforce: vector dim %d != index dim %d", len(vec), i.dim)
	}
	i.dim = len(vec)
	cp := append([]float32(nil), vec...)
	i.vecs = append(i.vecs, cp)
	i.mags = append(i.mags, search.Float32s(cp).Magnitude())
	return len(i.vecs) - 1, nil
}

// Remove deletes the vector at pos and compacts the positions above it.
func (i *Index) Remove(pos int) error {
	if pos < 0 || pos >= len(i.vecs) {
		return fmt.Errorf("bruteforce: position %d out of range [0,%d)", pos, len(i.vecs))
	}
	i.vecs = append(i.vecs[:pos], i.vecs[pos+1:]...)
	i.mags = append(i.mags[:pos], i.mags[pos+1:]...)
	return nil
}

// Vectors returns the stored vectors in position order. The outer slice is
// a copy; the vectors themselves are shared and must not be modified.
func (i *Index) Vectors() [][]float32 {
	return append([][]float32(nil), i.vecs...)
}

// Vector returns a copy of the vector at pos.
func (i *Index) Vector(pos int) ([]float32, error) {
	if pos < 0 || pos >= len(i.vecs) {
		return nil, fmt.Errorf("bruteforce: position %d out of range [0,%d)", pos, len(i.vecs))
	}
	return append([]float32(nil), i.vecs[pos]...), nil
}

// Query returns the top-k neighbours by ascending distance; ties keep
// position order.
func (i *Index) Query(query []float32, k int) ([]index.Neighbor, error) {
	if len(i.vecs) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	out := make([]index.Neighbor, 0, len(i.vecs))
	switch i.metric {
	case index.Cosine:
		qm := float64(search.Float32s(query).Magnitude())
		if qm == 0 {
			return nil, nil
		}
		for j := range i.vecs {
			// zero vectors have no direction
			if i.mags[j] == 0 {
				continue
			}
			d := cosineDistance(query, i.vecs[j], qm, float64(i.mags[j]))
			if math.IsNaN(d) {
				continue
			}
			out = append(out, index.Neighbor{Pos: j, Distance: d})
		}
	default:
		for j := range i.vecs {
			d, err := vector.SquaredL2(query, i.vecs[j])
			if err != nil {
				return nil, err
			}
			out = append(out, index.Neighbor{Pos: j, Distance: d})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Distance < out[b].Distance })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// cosineDistance returns 1 - cos(a, b) given both magnitudes.
func cosineDistance(a, b []float32, magA, magB float64) float64 {
	var dot float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
	}
	return 1 - dot/(magA*magB)
}

// MarshalBinary stores: metric(uint32), dim(uint32), n(uint32), then n
// vectors of dim little-endian float32 values.
func (i *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, headerSize, headerSize+4*i.dim*len(i.vecs))
	binary.LittleEndian.PutUint32(out[0:4], uint32(i.metric))
	binary.LittleEndian.PutUint32(out[4:8], uint32(i.dim))
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(i.vecs)))
	for _, vec := range i.vecs {
		out = append(out, vector.EncodeEmbedding(vec)...)
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return errors.New("bruteforce: invalid data")
	}
	metric := index.Metric(binary.LittleEndian.Uint32(data[0:4]))
	if metric != index.L2 && metric != index.Cosine {
		return fmt.Errorf("bruteforce: unknown metric %d", uint32(metric))
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	n := int(binary.LittleEndian.Uint32(data[8:12]))
	if n > 0 && dim == 0 {
		return errors.New("bruteforce: zero dimension with stored vectors")
	}
	// header fields are untrusted; compare in uint64 before allocating
	if want := uint64(dim) * uint64(n) * 4; uint64(len(data)-headerSize) != want {
		return fmt.Errorf("bruteforce: truncated: %d payload bytes, want %d", len(data)-headerSize, want)
	}
	vecs := make([][]float32, n)
	off := headerSize
	for idx := 0; idx < n; idx++ {
		vec, err := vector.DecodeEmbedding(data[off : off+4*dim])
		if err != nil {
			return err
		}
		vecs[idx] = vec
		off += 4 * dim
	}
	i.metric = metric
	i.dim = dim
	return i.Build(vecs)
}

var _ index.Index = (*Index)(nil)
