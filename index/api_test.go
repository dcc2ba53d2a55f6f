package index

import "testing"

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{"": L2, "L2": L2, "euclidean": L2, "cosine": Cosine, " cos ": Cosine}
	for in, want := range cases {
		got, err := ParseMetric(in)
		if err != nil {
			t.Fatalf("ParseMetric(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMetric(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMetric("manhattan"); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}
