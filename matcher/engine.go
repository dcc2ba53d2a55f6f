package matcher

import (
	"fmt"

	"github.com/viant/closet/internal/metrics"
	"github.com/viant/closet/rules"
	"github.com/viant/closet/wardrobe"
	"github.com/viant/closet/weather"
)

// Tier names the bottom fallback tier that produced the bottom garment.
type Tier string

const (
	TierPaired  Tier = "paired"
	TierGeneric Tier = "generic"
	TierAny     Tier = "any"
)

// NoSuitableClothesError reports that no garment suits the weather. It is
// a terminal outcome, not retried.
type NoSuitableClothesError struct {
	Weather weather.Label
}

func (e *NoSuitableClothesError) Error() string {
	return fmt.Sprintf("no suitable clothes for %s weather", e.Weather)
}

// Result is a recommended outfit.
type Result struct {
	Top        wardrobe.GarmentItem `json:"top"`
	Bottom     wardrobe.GarmentItem `json:"bottom"`
	Weather    weather.Label        `json:"weather"`
	Occasion   string               `json:"occasion"`
	Profile    rules.Profile        `json:"occasion_details"`
	BottomTier Tier                 `json:"bottom_tier"`
}

// Engine evaluates the rule set against a catalog snapshot.
type Engine struct {
	rules *rules.RuleSet
	rnd   Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the tie-break source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// New creates an Engine over rs.
func New(rs *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{rules: rs, rnd: globalRand{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *rules.RuleSet { return e.rules }

// Recommend picks an outfit from items for occasion and label.
func (e *Engine) Recommend(occasion string, label weather.Label, items []wardrobe.GarmentItem) (*Result, error) {
	occasion = e.rules.NormalizeOccasion(occasion)

	weatherItems := filter(items, func(it wardrobe.GarmentItem) bool {
		return e.rules.AllowedIn(label, it.Category)
	})
	if len(weatherItems) == 0 {
		metrics.NoSuitableClothes.WithLabelValues(string(label)).Inc()
		return nil, &NoSuitableClothesError{Weather: label}
	}

	topCandidates := filter(weatherItems, func(it wardrobe.GarmentItem) bool {
		return e.rules.InStyle(occasion, it.Category)
	})
	if len(topCandidates) == 0 {
		topCandidates = weatherItems
	}
	top := e.choose(topCandidates)

	bottom, tier := e.chooseBottom(top, items)
	metrics.Recommendations.WithLabelValues(string(label), string(tier)).Inc()
	return &Result{
		Top:        top,
		Bottom:     bottom,
		Weather:    label,
		Occasion:   occasion,
		Profile:    e.rules.Profile(occasion),
		BottomTier: tier,
	}, nil
}

// BottomCandidates returns the candidate set and tier a bottom would be
// drawn from for top.
func (e *Engine) BottomCandidates(top wardrobe.GarmentItem, items []wardrobe.GarmentItem) ([]wardrobe.GarmentItem, Tier) {
	compatible := e.rules.CompatibleBottoms(top.Category)
	paired := filter(items, func(it wardrobe.GarmentItem) bool {
		for _, c := range compatible {
			if it.Category == c {
				return true
			}
		}
		return false
	})
	if len(paired) > 0 {
		return paired, TierPaired
	}
	generic := filter(items, func(it wardrobe.GarmentItem) bool {
		return e.rules.IsFallbackBottom(it.Category)
	})
	if len(generic) > 0 {
		return generic, TierGeneric
	}
	// may hand back an unsuitable garment, even the top itself
	return items, TierAny
}

func (e *Engine) chooseBottom(top wardrobe.GarmentItem, items []wardrobe.GarmentItem) (wardrobe.GarmentItem, Tier) {
	candidates, tier := e.BottomCandidates(top, items)
	return e.choose(candidates), tier
}

func (e *Engine) choose(items []wardrobe.GarmentItem) wardrobe.GarmentItem {
	if len(items) == 1 {
		return items[0]
	}
	return items[e.rnd.IntN(len(items))]
}

func filter(items []wardrobe.GarmentItem, keep func(wardrobe.GarmentItem) bool) []wardrobe.GarmentItem {
	var out []wardrobe.GarmentItem
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
