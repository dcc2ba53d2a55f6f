package vector

import "testing"

func TestSquaredL2(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	sq, err := SquaredL2(a, b)
	if err != nil {
		t.Fatalf("SquaredL2 failed: %v", err)
	}
	if sq != 25 {
		t.Fatalf("SquaredL2(0,0)-(3,4) = %v, want 25", sq)
	}

	if sq, err := SquaredL2(b, b); err != nil || sq != 0 {
		t.Fatalf("SquaredL2(b,b) = %v, %v; want 0, nil", sq, err)
	}

	if _, err := SquaredL2(a, []float32{1}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
