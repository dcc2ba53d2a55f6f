package weather

import (
	"fmt"
	"strings"
)

// Label is a discrete weather bucket.
type Label string

const (
	VeryCold Label = "very_cold"
	Cold     Label = "cold"
	Mild     Label = "mild"
	Warm     Label = "warm"
	Hot      Label = "hot"
	Rainy    Label = "rainy"
)

// DefaultLabel is returned whenever a lookup fails.
const DefaultLabel = Mild

// Labels returns every label in classification order.
func Labels() []Label {
	return []Label{Rainy, VeryCold, Cold, Mild, Warm, Hot}
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	switch l {
	case VeryCold, Cold, Mild, Warm, Hot, Rainy:
		return true
	}
	return false
}

// ParseLabel resolves a label name case-insensitively.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("weather: unknown label %q", s)
	}
	return l, nil
}

// Reading is a raw weather observation.
type Reading struct {
	TemperatureC float64 `json:"temperature_c"`
	Condition    string  `json:"condition"`
}

// Classify maps a reading to a label. Rain wins over temperature; the
// temperature bands are lower-bound inclusive (5, 15, 22, 28 °C).
func Classify(r Reading) Label {
	switch t := r.TemperatureC; {
	case strings.Contains(strings.ToLower(r.Condition), "rain"):
		return Rainy
	case t < 5:
		return VeryCold
	case t < 15:
		return Cold
	case t < 22:
		return Mild
	case t < 28:
		return Warm
	default:
		return Hot
	}
}
