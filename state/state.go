package state

import (
	"context"
	"errors"

	"github.com/viant/closet/wardrobe"
)

// ErrCorrupt reports a snapshot that cannot be decoded or whose catalog and
// index disagree.
var ErrCorrupt = errors.New("state: corrupt snapshot")

// Store saves and loads wardrobe snapshots.
type Store interface {
	wardrobe.Persister
	Load(ctx context.Context) (wardrobe.Snapshot, error)
}
