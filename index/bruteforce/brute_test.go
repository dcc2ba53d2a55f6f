package bruteforce

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/viant/closet/index"
)

func newL2(t *testing.T, vecs ...[]float32) *Index {
	t.Helper()
	idx := New(index.L2, 0)
	for n, v := range vecs {
		pos, err := idx.Add(v)
		if err != nil {
			t.Fatalf("Add(%v) failed: %v", v, err)
		}
		if pos != n {
			t.Fatalf("Add returned pos %d, want %d", pos, n)
		}
	}
	return idx
}

func TestQuery_L2Ordering(t *testing.T) {
	idx := newL2(t, []float32{3, 4}, []float32{0, 0}, []float32{1, 1})

	got, err := idx.Query([]float32{0, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Query returned %d neighbours, want 3", len(got))
	}
	wantPos := []int{1, 2, 0}
	wantDist := []float64{0, 2, 25}
	for n := range got {
		if got[n].Pos != wantPos[n] || got[n].Distance != wantDist[n] {
			t.Fatalf("neighbour %d = %+v, want pos=%d dist=%v", n, got[n], wantPos[n], wantDist[n])
		}
	}

	top, err := idx.Query([]float32{0, 0}, 1)
	if err != nil {
		t.Fatalf("Query k=1 failed: %v", err)
	}
	if len(top) != 1 || top[0].Pos != 1 {
		t.Fatalf("Query k=1 = %+v, want [pos 1]", top)
	}
}

func TestQuery_TiesKeepPositionOrder(t *testing.T) {
	idx := newL2(t, []float32{1, 0}, []float32{0, 1}, []float32{-1, 0})
	got, err := idx.Query([]float32{0, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for n, nb := range got {
		if nb.Pos != n {
			t.Fatalf("tie order broken: %+v", got)
		}
	}
}

func TestQuery_Cosine(t *testing.T) {
	idx := New(index.Cosine, 0)
	for _, v := range [][]float32{{0, 1}, {1, 0}, {0, 0}} {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	got, err := idx.Query([]float32{2, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected zero vector to be skipped, got %+v", got)
	}
	if got[0].Pos != 1 || math.Abs(got[0].Distance) > 1e-6 {
		t.Fatalf("nearest = %+v, want pos 1 at distance 0", got[0])
	}
	if got[1].Pos != 0 || math.Abs(got[1].Distance-1) > 1e-6 {
		t.Fatalf("second = %+v, want pos 0 at distance 1", got[1])
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	idx := newL2(t, []float32{1, 2})
	if _, err := idx.Add([]float32{1, 2, 3}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if _, err := idx.Query([]float32{1}, 1); err == nil {
		t.Fatalf("expected query dimension mismatch error")
	}
	if idx.Len() != 1 {
		t.Fatalf("Len = %d after rejected add, want 1", idx.Len())
	}
}

func TestRemove_Compacts(t *testing.T) {
	idx := newL2(t, []float32{0}, []float32{1}, []float32{2})
	if err := idx.Remove(0); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	for pos, want := range []float32{1, 2} {
		v, err := idx.Vector(pos)
		if err != nil {
			t.Fatalf("Vector(%d) failed: %v", pos, err)
		}
		if v[0] != want {
			t.Fatalf("Vector(%d) = %v, want [%v]", pos, v, want)
		}
	}
	if err := idx.Remove(2); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if err := idx.Remove(-1); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestVector_ReturnsCopy(t *testing.T) {
	idx := newL2(t, []float32{1, 2})
	v, _ := idx.Vector(0)
	v[0] = 42
	again, _ := idx.Vector(0)
	if again[0] != 1 {
		t.Fatalf("stored vector mutated through returned copy")
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	idx := New(index.Cosine, 0)
	for _, v := range [][]float32{{0.1, -2.5, 3}, {float32(math.Inf(-1)), 0, 7.25}} {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	var restored Index
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if restored.Metric() != index.Cosine || restored.Dim() != 3 || restored.Len() != 2 {
		t.Fatalf("restored metric=%v dim=%d len=%d", restored.Metric(), restored.Dim(), restored.Len())
	}
	for pos := 0; pos < 2; pos++ {
		a, _ := idx.Vector(pos)
		b, _ := restored.Vector(pos)
		for j := range a {
			if math.Float32bits(a[j]) != math.Float32bits(b[j]) {
				t.Fatalf("vector %d[%d] = %v, want %v", pos, j, b[j], a[j])
			}
		}
	}
}

func TestMarshalUnmarshal_EmptyKeepsDim(t *testing.T) {
	idx := newL2(t, []float32{1, 2, 3})
	if err := idx.Remove(0); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	var restored Index
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if restored.Len() != 0 || restored.Dim() != 3 {
		t.Fatalf("restored len=%d dim=%d, want 0 and 3", restored.Len(), restored.Dim())
	}
}

func TestUnmarshal_Truncated(t *testing.T) {
	idx := newL2(t, []float32{1, 2})
	data, _ := idx.MarshalBinary()
	var restored Index
	if err := restored.UnmarshalBinary(data[:len(data)-1]); err == nil {
		t.Fatalf("expected truncation error")
	}
	if err := restored.UnmarshalBinary(data[:4]); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestUnmarshal_OversizedHeader(t *testing.T) {
	// dim*n*4 wraps to zero in 64-bit int arithmetic
	data := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(data[0:4], uint32(index.L2))
	binary.LittleEndian.PutUint32(data[4:8], 1<<31)
	binary.LittleEndian.PutUint32(data[8:12], 1<<31)
	var restored Index
	if err := restored.UnmarshalBinary(data); err == nil {
		t.Fatalf("expected length error for oversized header")
	}

	binary.LittleEndian.PutUint32(data[4:8], 1<<20)
	binary.LittleEndian.PutUint32(data[8:12], 1<<12)
	if err := restored.UnmarshalBinary(data); err == nil {
		t.Fatalf("expected length error for missing payload")
	}
}

func TestQuery_CosineValues(t *testing.T) {
	idx := New(index.Cosine, 0)
	for _, v := range [][]float32{{1, 1, 0}, {-1, 0, 0}, {3, 0, 4}} {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	got, err := idx.Query([]float32{1, 0, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	want := []struct {
		pos  int
		dist float64
	}{
		{0, 1 - 1/math.Sqrt2},
		{2, 1 - 0.6},
		{1, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d neighbours, want %d: %+v", len(got), len(want), got)
	}
	for n, w := range want {
		if got[n].Pos != w.pos || math.Abs(got[n].Distance-w.dist) > 1e-6 {
			t.Fatalf("neighbour %d = %+v, want pos %d at %v", n, got[n], w.pos, w.dist)
		}
	}
}

func TestNew_PresetDim(t *testing.T) {
	idx := New(index.L2, 3)
	if _, err := idx.Add([]float32{1, 2}); err == nil {
		t.Fatalf("expected preset dimension to reject 2-d vector")
	}
	if err := idx.Build([][]float32{{1, 2}}); err == nil {
		t.Fatalf("expected Build to reject 2-d vectors")
	}
	if _, err := idx.Add([]float32{1, 2, 3}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got := idx.Vectors(); len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("Vectors() = %v", got)
	}
}
