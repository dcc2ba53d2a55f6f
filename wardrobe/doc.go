// Package wardrobe implements the garment catalog: ordered garment metadata
// kept in lock-step with a brute-force embedding index, so that catalog
// position i and index position i always describe the same garment.
//
// Every mutation is persisted through a Persister before it is applied in
// memory and before success is reported; a failed flush leaves the catalog
// unchanged.
package wardrobe
