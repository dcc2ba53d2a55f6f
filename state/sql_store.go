package state

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/viant/closet/engine"
	"github.com/viant/closet/index"
	"github.com/viant/closet/vector"
	"github.com/viant/closet/wardrobe"
)

const (
	// GarmentTable holds one row per catalog position.
	GarmentTable = "closet_garments"

	// MetaTable stores the index metric and dimension.
	MetaTable = "closet_meta"
)

// GarmentTableDDL returns the DDL for the garment table. PostgreSQL stores
// embeddings as BYTEA, SQLite as BLOB.
func GarmentTableDDL(dialect string) string {
	blob := "BLOB"
	if dialect == engine.Postgres {
		blob = "BYTEA"
	}
	return `CREATE TABLE IF NOT EXISTS ` + GarmentTable + ` (
    position    INTEGER PRIMARY KEY,
    storage_ref TEXT NOT NULL,
    category    TEXT NOT NULL,
    color       TEXT NOT NULL DEFAULT '',
    embedding   ` + blob + ` NOT NULL
);`
}

// MetaTableDDL returns the DDL for the key/value metadata table.
func MetaTableDDL() string {
	return `CREATE TABLE IF NOT EXISTS ` + MetaTable + ` (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
}

// SQLStore persists snapshots into a relational database. Every Save
// replaces the whole wardrobe inside one transaction.
type SQLStore struct {
	db      *sql.DB
	dialect string
	mu      sync.Mutex
}

// NewSQLStore creates the schema if needed. dialect is engine.SQLite or
// engine.Postgres.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	switch dialect {
	case engine.SQLite, engine.Postgres:
	default:
		return nil, fmt.Errorf("state: unsupported dialect %q", dialect)
	}
	for _, ddl := range []string{GarmentTableDDL(dialect), MetaTableDDL()} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("state: create schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) bind(query string) string {
	if s.dialect != engine.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save replaces the stored wardrobe with snap.
func (s *SQLStore) Save(ctx context.Context, snap wardrobe.Snapshot) (err error) {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("state: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+GarmentTable); err != nil {
		return fmt.Errorf("state: clear garments: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.bind(`INSERT INTO `+GarmentTable+`(position, storage_ref, category, color, embedding) VALUES(?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("state: prepare insert: %w", err)
	}
	defer stmt.Close()
	for pos, item := range snap.Items {
		if _, err = stmt.ExecContext(ctx, pos, item.StorageRef, item.Category, item.Color, vector.EncodeEmbedding(snap.Embeddings[pos])); err != nil {
			return fmt.Errorf("state: insert garment %d: %w", pos, err)
		}
	}
	upsert := s.bind(`INSERT INTO ` + MetaTable + `(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	for key, value := range map[string]string{
		"metric": snap.Metric.String(),
		"dim":    strconv.Itoa(snap.Dim),
	} {
		if _, err = tx.ExecContext(ctx, upsert, key, value); err != nil {
			return fmt.Errorf("state: write %s: %w", key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// Load reads the stored wardrobe. A database that has never been saved to
// yields an empty snapshot with zero dimension.
func (s *SQLStore) Load(ctx context.Context) (wardrobe.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := wardrobe.Snapshot{Items: []wardrobe.GarmentItem{}}
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return wardrobe.Snapshot{}, err
	}
	if v, ok := meta["metric"]; ok {
		if snap.Metric, err = index.ParseMetric(v); err != nil {
			return wardrobe.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	if v, ok := meta["dim"]; ok {
		if snap.Dim, err = strconv.Atoi(v); err != nil || snap.Dim < 0 {
			return wardrobe.Snapshot{}, fmt.Errorf("%w: dim %q", ErrCorrupt, v)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT position, storage_ref, category, color, embedding FROM `+GarmentTable+` ORDER BY position`)
	if err != nil {
		return wardrobe.Snapshot{}, fmt.Errorf("state: query garments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item wardrobe.GarmentItem
			emb  []byte
		)
		if err := rows.Scan(&item.ID, &item.StorageRef, &item.Category, &item.Color, &emb); err != nil {
			return wardrobe.Snapshot{}, fmt.Errorf("state: scan garment: %w", err)
		}
		if item.ID != len(snap.Items) {
			return wardrobe.Snapshot{}, fmt.Errorf("%w: gap at position %d", ErrCorrupt, len(snap.Items))
		}
		vec, err := vector.DecodeEmbedding(emb)
		if err != nil {
			return wardrobe.Snapshot{}, fmt.Errorf("%w: garment %d: %v", ErrCorrupt, item.ID, err)
		}
		snap.Items = append(snap.Items, item)
		snap.Embeddings = append(snap.Embeddings, vec)
	}
	if err := rows.Err(); err != nil {
		return wardrobe.Snapshot{}, fmt.Errorf("state: read garments: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return wardrobe.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap, nil
}

func (s *SQLStore) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM `+MetaTable)
	if err != nil {
		return nil, fmt.Errorf("state: query meta: %w", err)
	}
	defer rows.Close()
	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("state: scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// Open returns the store selected by backend: "file" uses path, the SQL
// backends open dsn through engine.OpenBackend.
func Open(ctx context.Context, backend, path, dsn string) (Store, io.Closer, error) {
	switch strings.ToLower(backend) {
	case "", "file":
		return NewFileStore(path), nopCloser{}, nil
	}
	db, err := engine.OpenBackend(backend, dsn)
	if err != nil {
		return nil, nil, err
	}
	dialect := engine.SQLite
	if b := strings.ToLower(backend); b != engine.SQLite && b != "sqlite3" {
		dialect = engine.Postgres
	}
	if dialect == engine.SQLite {
		db.SetMaxOpenConns(1)
	}
	store, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var _ Store = (*SQLStore)(nil)
