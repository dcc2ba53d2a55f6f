package wardrobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/closet/index"
)

// ErrInvalidItem reports garment metadata that cannot be stored.
var ErrInvalidItem = errors.New("wardrobe: invalid item")

// GarmentItem is a catalog entry. ID equals the catalog position and is
// renumbered when an earlier item is removed.
type GarmentItem struct {
	ID         int    `json:"id"`
	StorageRef string `json:"storage_ref"`
	Category   string `json:"category"`
	Color      string `json:"color,omitempty"`
}

// Match is a similarity search result.
type Match struct {
	Item     GarmentItem `json:"item"`
	Distance float64     `json:"distance"`
}

// Snapshot is the persisted unit: catalog items and their embeddings,
// index-aligned.
type Snapshot struct {
	Metric     index.Metric
	Dim        int
	Items      []GarmentItem
	Embeddings [][]float32
}

// Validate checks the alignment of items and embeddings.
func (s Snapshot) Validate() error {
	if len(s.Items) != len(s.Embeddings) {
		return fmt.Errorf("snapshot: %d items but %d embeddings", len(s.Items), len(s.Embeddings))
	}
	for pos, item := range s.Items {
		if item.ID != pos {
			return fmt.Errorf("snapshot: item at position %d has id %d", pos, item.ID)
		}
		if len(s.Embeddings[pos]) != s.Dim {
			return fmt.Errorf("snapshot: embedding %d has dim %d, want %d", pos, len(s.Embeddings[pos]), s.Dim)
		}
	}
	return nil
}

// Persister durably stores a snapshot. Save must be atomic: after a failed
// Save the previous snapshot is still loadable. The snapshot's embeddings
// are shared with the catalog and must not be modified.
type Persister interface {
	Save(ctx context.Context, s Snapshot) error
}

// ImageSource resolves a storage reference to image bytes.
type ImageSource interface {
	ReadImage(ctx context.Context, ref string) ([]byte, error)
}
