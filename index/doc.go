// Package index defines the positional vector index contract used by the
// wardrobe catalog. Positions are dense: position i always addresses the i-th
// live vector, and removal compacts the positions above it.
package index
