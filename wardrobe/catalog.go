package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/viant/closet/extractor"
	"github.com/viant/closet/index"
	"github.com/viant/closet/index/bruteforce"
	"github.com/viant/closet/internal/logging"
	"github.com/viant/closet/internal/metrics"
)

// Catalog is the garment catalog. It is safe for concurrent use: mutations
// hold the write lock across persist-then-apply, reads hold the read lock.
type Catalog struct {
	mu        sync.RWMutex
	items     []GarmentItem
	index     *bruteforce.Index
	images    ImageSource
	extractor extractor.Extractor
	persister Persister
	log       zerolog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPersister flushes every mutation through p.
func WithPersister(p Persister) Option {
	return func(c *Catalog) { c.persister = p }
}

// WithImages sets the image source used by AddItem.
func WithImages(src ImageSource) Option {
	return func(c *Catalog) { c.images = src }
}

// WithExtractor sets the embedding extractor used by AddItem.
func WithExtractor(x extractor.Extractor) Option {
	return func(c *Catalog) { c.extractor = x }
}

// New creates an empty catalog whose index ranks by metric; dim 0 lets the
// first item fix the embedding dimension.
func New(metric index.Metric, dim int, opts ...Option) *Catalog {
	c := &Catalog{
		index: bruteforce.New(metric, dim),
		log:   logging.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromSnapshot restores a catalog from a persisted snapshot.
func FromSnapshot(s Snapshot, opts ...Option) (*Catalog, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := New(s.Metric, s.Dim, opts...)
	if err := c.index.Build(s.Embeddings); err != nil {
		return nil, fmt.Errorf("wardrobe: restore index: %w", err)
	}
	c.items = append([]GarmentItem(nil), s.Items...)
	metrics.CatalogItems.Set(float64(len(c.items)))
	return c, nil
}

// AddItem reads the image behind storageRef, extracts its embedding and
// appends the garment. It returns the new item's id.
func (c *Catalog) AddItem(ctx context.Context, storageRef, category, color string) (int, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, fmt.Errorf("%w: empty category", ErrInvalidItem)
	}
	if storageRef == "" {
		return 0, fmt.Errorf("%w: empty storage reference", ErrInvalidItem)
	}
	if c.images == nil || c.extractor == nil {
		return 0, fmt.Errorf("wardrobe: catalog has no image source or extractor")
	}
	image, err := c.images.ReadImage(ctx, storageRef)
	if err != nil {
		return 0, fmt.Errorf("wardrobe: read image %s: %w", storageRef, err)
	}
	vec, err := c.extractor.Extract(ctx, image)
	if err != nil {
		var xerr *extractor.Error
		if errors.As(err, &xerr) {
			return 0, err
		}
		return 0, &extractor.Error{Err: err}
	}
	if len(vec) == 0 {
		return 0, &extractor.Error{Err: errors.New("empty embedding")}
	}
	return c.Insert(ctx, storageRef, category, color, vec)
}

// Insert appends a garment with a precomputed embedding.
func (c *Catalog) Insert(ctx context.Context, storageRef, category, color string, embedding []float32) (int, error) {
	category, color = strings.TrimSpace(category), strings.TrimSpace(color)
	if category == "" || storageRef == "" {
		return 0, fmt.Errorf("%w: category and storage reference are required", ErrInvalidItem)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(embedding) == 0 {
		return 0, fmt.Errorf("%w: empty embedding", ErrInvalidItem)
	}
	if dim := c.index.Dim(); dim != 0 && len(embedding) != dim {
		return 0, fmt.Errorf("%w: embedding dim %d, want %d", ErrInvalidItem, len(embedding), dim)
	}
	id := len(c.items)
	item := GarmentItem{ID: id, StorageRef: storageRef, Category: category, Color: color}

	next := c.snapshotLocked()
	next.Dim = len(embedding)
	next.Items = append(next.Items, item)
	next.Embeddings = append(next.Embeddings, embedding)
	if err := c.flush(ctx, next); err != nil {
		return 0, err
	}

	if _, err := c.index.Add(embedding); err != nil {
		return 0, fmt.Errorf("wardrobe: index add: %w", err)
	}
	c.items = append(c.items, item)
	metrics.CatalogItems.Set(float64(len(c.items)))
	c.log.Info().Int("id", id).Str("category", category).Msg("item added")
	return id, nil
}

// RemoveItem deletes the garment with id together with its embedding. It
// reports false when id is out of range.
func (c *Catalog) RemoveItem(ctx context.Context, id int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id < 0 || id >= len(c.items) {
		return false, nil
	}
	removed := c.items[id]

	cur := c.snapshotLocked()
	next := Snapshot{Metric: cur.Metric, Dim: cur.Dim}
	next.Items = make([]GarmentItem, 0, len(cur.Items)-1)
	next.Embeddings = make([][]float32, 0, len(cur.Embeddings)-1)
	for pos := range cur.Items {
		if pos == id {
			continue
		}
		item := cur.Items[pos]
		item.ID = len(next.Items)
		next.Items = append(next.Items, item)
		next.Embeddings = append(next.Embeddings, cur.Embeddings[pos])
	}
	if err := c.flush(ctx, next); err != nil {
		return false, err
	}

	if err := c.index.Remove(id); err != nil {
		return false, fmt.Errorf("wardrobe: index remove: %w", err)
	}
	c.items = next.Items
	metrics.CatalogItems.Set(float64(len(c.items)))
	c.log.Info().Int("id", id).Str("category", removed.Category).Msg("item removed")
	return true, nil
}

// ListItems returns the garments ordered by id.
func (c *Catalog) ListItems() []GarmentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]GarmentItem(nil), c.items...)
}

// Item returns the garment with id.
func (c *Catalog) Item(id int) (GarmentItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id < 0 || id >= len(c.items) {
		return GarmentItem{}, false
	}
	return c.items[id], true
}

// Len returns the number of garments.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Query returns up to k garments nearest to embedding.
func (c *Catalog) Query(ctx context.Context, embedding []float32, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	neighbors, err := c.index.Query(embedding, k)
	if err != nil {
		return nil, fmt.Errorf("wardrobe: query: %w", err)
	}
	return c.matchesLocked(neighbors, -1), nil
}

// Similar returns up to k garments nearest to the garment with id,
// excluding the garment itself.
func (c *Catalog) Similar(ctx context.Context, id, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id < 0 || id >= len(c.items) {
		return nil, fmt.Errorf("%w: no item with id %d", ErrInvalidItem, id)
	}
	vec, err := c.index.Vector(id)
	if err != nil {
		return nil, err
	}
	limit := k
	if limit > 0 {
		limit++
	}
	neighbors, err := c.index.Query(vec, limit)
	if err != nil {
		return nil, fmt.Errorf("wardrobe: query: %w", err)
	}
	out := c.matchesLocked(neighbors, id)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Snapshot returns a deep copy of the catalog state.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snapshotLocked()
	for pos, vec := range s.Embeddings {
		s.Embeddings[pos] = append([]float32(nil), vec...)
	}
	return s
}

// snapshotLocked shares embedding vectors with the index.
func (c *Catalog) snapshotLocked() Snapshot {
	return Snapshot{
		Metric:     c.index.Metric(),
		Dim:        c.index.Dim(),
		Items:      append([]GarmentItem(nil), c.items...),
		Embeddings: c.index.Vectors(),
	}
}

func (c *Catalog) matchesLocked(neighbors []index.Neighbor, skip int) []Match {
	out := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Pos == skip {
			continue
		}
		out = append(out, Match{Item: c.items[n.Pos], Distance: n.Distance})
	}
	return out
}

func (c *Catalog) flush(ctx context.Context, s Snapshot) error {
	if c.persister == nil {
		return nil
	}
	start := time.Now()
	if err := c.persister.Save(ctx, s); err != nil {
		return fmt.Errorf("wardrobe: persist: %w", err)
	}
	elapsed := time.Since(start)
	metrics.StateFlushDuration.Observe(elapsed.Seconds())
	c.log.Debug().Int("items", len(s.Items)).Dur("elapsed", elapsed).Msg("state flushed")
	return nil
}
