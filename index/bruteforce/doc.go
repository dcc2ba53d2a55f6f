// Package bruteforce provides an exact vector index that answers kNN queries
// by scanning every stored vector. It ranks by squared Euclidean distance by
// default (cosine distance is available), supports positional removal with
// compaction, and has a compact binary format for snapshots.
package bruteforce
