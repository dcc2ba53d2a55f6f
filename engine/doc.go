// Package engine opens database/sql connections for the snapshot backends:
// the pure-Go modernc.org/sqlite driver and the pgx PostgreSQL driver. It
// keeps a thin surface so other packages share the same driver instances.
package engine
