package state

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/closet/engine"
	"github.com/viant/closet/index"
	"github.com/viant/closet/wardrobe"
)

func sampleSnapshot() wardrobe.Snapshot {
	return wardrobe.Snapshot{
		Metric: index.Cosine,
		Dim:    3,
		Items: []wardrobe.GarmentItem{
			{ID: 0, StorageRef: "a.jpg", Category: "T-shirt", Color: "white"},
			{ID: 1, StorageRef: "b.jpg", Category: "Jeans"},
			{ID: 2, StorageRef: "c.jpg", Category: "Jacket", Color: "black"},
		},
		Embeddings: [][]float32{
			{0.1, -2.5, float32(math.SmallestNonzeroFloat32)},
			{1e-7, 3.4e38, -0},
			{0.3333333, 42, -1},
		},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "closet.state")
	store := NewFileStore(path)

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not remain")
}

func TestFileStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "closet.state"))
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	empty := wardrobe.Snapshot{Metric: index.L2, Dim: 3, Items: []wardrobe.GarmentItem{}}
	require.NoError(t, store.Save(ctx, empty))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Empty(t, got.Embeddings)
	assert.Equal(t, 3, got.Dim)
	assert.Equal(t, index.L2, got.Metric)
}

func TestFileStore_Missing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.state"))
	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileStore_RejectsMisaligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closet.state")
	snap := sampleSnapshot()
	snap.Embeddings = snap.Embeddings[:2]
	require.Error(t, NewFileStore(path).Save(context.Background(), snap))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecode_Corruption(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)/2] ^= 0xff

	badMagic := append([]byte(nil), data...)
	copy(badMagic, "XXXX")

	for name, blob := range map[string][]byte{
		"empty":     nil,
		"truncated": data[:len(data)-7],
		"bit flip":  flipped,
		"magic":     badMagic,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(blob)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closet.state")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot at all"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	db, err := engine.Open(filepath.Join(t.TempDir(), "closet.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	store, err := NewSQLStore(context.Background(), db, engine.SQLite)
	require.NoError(t, err)
	return store
}

func TestSQLStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A smaller wardrobe replaces the previous rows.
	smaller := sampleSnapshot()
	smaller.Items = smaller.Items[:1]
	smaller.Embeddings = smaller.Embeddings[:1]
	require.NoError(t, store.Save(ctx, smaller))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func TestSQLStore_DetectsGap(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	_, err := store.DB().ExecContext(ctx, `DELETE FROM `+GarmentTable+` WHERE position = 1`)
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNewSQLStore_Dialect(t *testing.T) {
	db, err := engine.Open(filepath.Join(t.TempDir(), "x.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	_, err = NewSQLStore(context.Background(), db, "oracle")
	assert.Error(t, err)
}

func TestSQLStore_Bind(t *testing.T) {
	pg := &SQLStore{dialect: engine.Postgres}
	assert.Equal(t, "VALUES($1, $2, $3)", pg.bind("VALUES(?, ?, ?)"))
	lite := &SQLStore{dialect: engine.SQLite}
	assert.Equal(t, "VALUES(?, ?)", lite.bind("VALUES(?, ?)"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, closer, err := Open(ctx, "file", filepath.Join(dir, "closet.state"), "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.NoError(t, closer.Close())

	store, closer, err = Open(ctx, "sqlite", "", filepath.Join(dir, "closet.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = Open(ctx, "mongo", "", "")
	assert.Error(t, err)
}
