// Package rules holds the pairing rule set: which bottoms go with which
// tops, which categories suit each weather label, and what each occasion
// prefers. A RuleSet is immutable once built and is shared by pointer.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/viant/closet/weather"
)

// Comfort is the comfort level associated with an occasion.
type Comfort string

const (
	ComfortLow    Comfort = "low"
	ComfortMedium Comfort = "medium"
	ComfortHigh   Comfort = "high"
)

// Valid reports whether c is a known comfort level.
func (c Comfort) Valid() bool {
	return c == ComfortLow || c == ComfortMedium || c == ComfortHigh
}

// Profile describes an occasion.
type Profile struct {
	StyleCategories []string `json:"style" koanf:"style"`
	Comfort         Comfort  `json:"comfort" koanf:"comfort"`
}

// Pairing lists the bottoms compatible with a top category, in preference order.
type Pairing struct {
	Top     string   `json:"top" koanf:"top"`
	Bottoms []string `json:"bottoms" koanf:"bottoms"`
}

// Definition is the mutable, serializable form of a rule set.
type Definition struct {
	Pairings        []Pairing           `json:"pairings" koanf:"pairings"`
	Weather         map[string][]string `json:"weather" koanf:"weather"`
	Occasions       map[string]Profile  `json:"occasions" koanf:"occasions"`
	FallbackBottoms []string            `json:"fallback_bottoms" koanf:"fallback_bottoms"`
	DefaultOccasion string              `json:"default_occasion" koanf:"default_occasion"`
}

// RuleSet is the immutable, validated rule set.
type RuleSet struct {
	def             Definition
	topToBottoms    map[string][]string
	weather         map[weather.Label]map[string]struct{}
	occasions       map[string]Profile
	styles          map[string]map[string]struct{}
	fallbackBottoms map[string]struct{}
}

// New validates def and builds a RuleSet. def is deep-copied.
func New(def Definition) (*RuleSet, error) {
	def = cloneDefinition(def)
	if def.DefaultOccasion == "" {
		def.DefaultOccasion = "casual"
	}
	def.DefaultOccasion = strings.ToLower(def.DefaultOccasion)

	rs := &RuleSet{
		def:             def,
		topToBottoms:    make(map[string][]string, len(def.Pairings)),
		weather:         make(map[weather.Label]map[string]struct{}, len(def.Weather)),
		occasions:       make(map[string]Profile, len(def.Occasions)),
		styles:          make(map[string]map[string]struct{}, len(def.Occasions)),
		fallbackBottoms: toSet(def.FallbackBottoms),
	}
	for _, p := range def.Pairings {
		if p.Top == "" {
			return nil, fmt.Errorf("rules: pairing with empty top category")
		}
		if _, dup := rs.topToBottoms[p.Top]; dup {
			return nil, fmt.Errorf("rules: duplicate pairing for top %q", p.Top)
		}
		if err := checkCategories(p.Bottoms); err != nil {
			return nil, fmt.Errorf("rules: pairing %q: %w", p.Top, err)
		}
		rs.topToBottoms[p.Top] = p.Bottoms
	}
	for name, cats := range def.Weather {
		label, err := weather.ParseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		if err := checkCategories(cats); err != nil {
			return nil, fmt.Errorf("rules: weather %q: %w", name, err)
		}
		rs.weather[label] = toSet(cats)
	}
	for name, profile := range def.Occasions {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, fmt.Errorf("rules: occasion with empty name")
		}
		if !profile.Comfort.Valid() {
			return nil, fmt.Errorf("rules: occasion %q: unknown comfort %q", name, profile.Comfort)
		}
		if err := checkCategories(profile.StyleCategories); err != nil {
			return nil, fmt.Errorf("rules: occasion %q: %w", name, err)
		}
		rs.occasions[key] = profile
		rs.styles[key] = toSet(profile.StyleCategories)
	}
	if _, ok := rs.occasions[def.DefaultOccasion]; !ok {
		return nil, fmt.Errorf("rules: default occasion %q has no profile", def.DefaultOccasion)
	}
	if err := checkCategories(def.FallbackBottoms); err != nil {
		return nil, fmt.Errorf("rules: fallback bottoms: %w", err)
	}
	return rs, nil
}

// NormalizeOccasion lowercases occasion and substitutes the default
// occasion when no profile exists for it.
func (rs *RuleSet) NormalizeOccasion(occasion string) string {
	key := strings.ToLower(strings.TrimSpace(occasion))
	if _, ok := rs.occasions[key]; ok {
		return key
	}
	return rs.def.DefaultOccasion
}

// Profile returns a copy of the profile of occasion, normalized first.
func (rs *RuleSet) Profile(occasion string) Profile {
	p := rs.occasions[rs.NormalizeOccasion(occasion)]
	return Profile{StyleCategories: slices.Clone(p.StyleCategories), Comfort: p.Comfort}
}

// AllowedIn reports whether category suits the weather label.
func (rs *RuleSet) AllowedIn(label weather.Label, category string) bool {
	_, ok := rs.weather[label][category]
	return ok
}

// InStyle reports whether category is part of the occasion's style.
func (rs *RuleSet) InStyle(occasion, category string) bool {
	_, ok := rs.styles[rs.NormalizeOccasion(occasion)][category]
	return ok
}

// CompatibleBottoms returns the bottoms configured for a top category, or
// nil when the category has no pairing.
func (rs *RuleSet) CompatibleBottoms(top string) []string {
	return slices.Clone(rs.topToBottoms[top])
}

// IsFallbackBottom reports whether category is a generic bottom.
func (rs *RuleSet) IsFallbackBottom(category string) bool {
	_, ok := rs.fallbackBottoms[category]
	return ok
}

// DefaultOccasion returns the occasion used for unknown names.
func (rs *RuleSet) DefaultOccasion() string { return rs.def.DefaultOccasion }

// Definition returns a copy of the definition the set was built from.
func (rs *RuleSet) Definition() Definition { return cloneDefinition(rs.def) }

func checkCategories(cats []string) error {
	for _, c := range cats {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("empty category")
		}
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func cloneDefinition(def Definition) Definition {
	out := Definition{
		FallbackBottoms: slices.Clone(def.FallbackBottoms),
		DefaultOccasion: def.DefaultOccasion,
	}
	for _, p := range def.Pairings {
		out.Pairings = append(out.Pairings, Pairing{Top: p.Top, Bottoms: slices.Clone(p.Bottoms)})
	}
	if def.Weather != nil {
		out.Weather = make(map[string][]string, len(def.Weather))
		for k, v := range def.Weather {
			out.Weather[k] = slices.Clone(v)
		}
	}
	if def.Occasions != nil {
		out.Occasions = make(map[string]Profile, len(def.Occasions))
		for k, v := range def.Occasions {
			out.Occasions[k] = Profile{StyleCategories: slices.Clone(v.StyleCategories), Comfort: v.Comfort}
		}
	}
	return out
}
