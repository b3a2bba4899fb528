package ports

import "context"

// CollectionManager creates and drops the per-site vector collection.
// Kept apart from VectorDB so read paths do not need collection rights.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its points.
	DeleteCollection(ctx context.Context) error
}
