// Package state persists the wardrobe catalog and its embedding index as a
// single unit, so a crash can never leave one without the other.
//
// FileStore writes one binary snapshot and replaces the previous one with
// an atomic rename. SQLStore rewrites a table inside one transaction on
// SQLite or PostgreSQL.
package state
