// Package vector holds the low-level embedding helpers shared by the index
// and the state backends:
//   - Embedding encoding (little-endian float32 BLOB)
//   - Squared L2 distance used for ranking
package vector
