package state

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/viant/closet/index/bruteforce"
	"github.com/viant/closet/wardrobe"
)

const (
	magic         = "CLST"
	formatVersion = uint32(1)
)

// FileStore keeps the snapshot in a single file.
//
// Layout: magic "CLST" | version(uint32) | catalogLen(uint32) | catalog
// JSON | indexLen(uint32) | bruteforce index | crc32(uint32) over all
// preceding bytes. Integers are little-endian.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot path.
func (s *FileStore) Path() string { return s.path }

type catalogDoc struct {
	Items []wardrobe.GarmentItem `json:"items"`
}

// Save writes snap to a temporary file in the same directory, syncs it and
// renames it over the previous snapshot.
func (s *FileStore) Save(ctx context.Context, snap wardrobe.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("state: replace %s: %w", s.path, err)
	}
	committed = true
	syncDir(dir)
	return nil
}

// Load reads the snapshot. A missing file yields an error wrapping
// fs.ErrNotExist; undecodable content yields ErrCorrupt.
func (s *FileStore) Load(ctx context.Context) (wardrobe.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return wardrobe.Snapshot{}, err
	}
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		return wardrobe.Snapshot{}, fmt.Errorf("state: load %s: %w", s.path, err)
	}
	return Decode(data)
}

// Encode serializes snap in the FileStore layout.
func Encode(snap wardrobe.Snapshot) ([]byte, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("state: encode: %w", err)
	}
	catalog, err := json.Marshal(catalogDoc{Items: snap.Items})
	if err != nil {
		return nil, fmt.Errorf("state: encode catalog: %w", err)
	}
	idx := bruteforce.New(snap.Metric, snap.Dim)
	if err := idx.Build(snap.Embeddings); err != nil {
		return nil, fmt.Errorf("state: encode index: %w", err)
	}
	blob, err := idx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("state: encode index: %w", err)
	}

	out := make([]byte, 0, len(magic)+4+4+len(catalog)+4+len(blob)+4)
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint32(out, formatVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(catalog)))
	out = append(out, catalog...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(blob)))
	out = append(out, blob...)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

// Decode parses bytes produced by Encode.
func Decode(data []byte) (wardrobe.Snapshot, error) {
	var snap wardrobe.Snapshot
	if len(data) < len(magic)+4+4+4+4 || string(data[:len(magic)]) != magic {
		return snap, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return snap, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	off := len(magic)
	if v := binary.LittleEndian.Uint32(body[off:]); v != formatVersion {
		return snap, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	off += 4

	section := func(name string) ([]byte, error) {
		if off+4 > len(body) {
			return nil, fmt.Errorf("%w: truncated %s length", ErrCorrupt, name)
		}
		n := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if n < 0 || off+n > len(body) {
			return nil, fmt.Errorf("%w: truncated %s", ErrCorrupt, name)
		}
		b := body[off : off+n]
		off += n
		return b, nil
	}
	catalog, err := section("catalog")
	if err != nil {
		return snap, err
	}
	blob, err := section("index")
	if err != nil {
		return snap, err
	}
	if off != len(body) {
		return snap, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(body)-off)
	}

	var doc catalogDoc
	if err := json.Unmarshal(catalog, &doc); err != nil {
		return snap, fmt.Errorf("%w: catalog: %v", ErrCorrupt, err)
	}
	var idx bruteforce.Index
	if err := idx.UnmarshalBinary(blob); err != nil {
		return snap, fmt.Errorf("%w: index: %v", ErrCorrupt, err)
	}
	snap = wardrobe.Snapshot{
		Metric:     idx.Metric(),
		Dim:        idx.Dim(),
		Items:      doc.Items,
		Embeddings: idx.Vectors(),
	}
	if snap.Items == nil {
		snap.Items = []wardrobe.GarmentItem{}
	}
	if err := snap.Validate(); err != nil {
		return wardrobe.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap, nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

var _ Store = (*FileStore)(nil)
