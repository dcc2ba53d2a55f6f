// Package matcher selects a top and a bottom garment for an occasion and a
// weather label. Filtering is deterministic; when several garments qualify
// equally, one is drawn uniformly from an injectable random source.
//
// Only the top is weather-filtered. Bottoms are drawn from the whole
// catalog through three tiers: bottoms paired with the top's category,
// then generic bottoms, then any garment at all.
package matcher
