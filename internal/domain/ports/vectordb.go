package ports

import (
	"context"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// VectorDB indexes activity embeddings for semantic search.
type VectorDB interface {
	// SaveBatch upserts activities with their embeddings.
	SaveBatch(ctx context.Context, activities []entities.Activity) error

	// Search returns the activities nearest to embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.Activity, error)

	// SearchByName is Search restricted to one activity name.
	SearchByName(ctx context.Context, embedding []float32, name string, limit int) ([]entities.Activity, error)

	// Delete removes one activity from the index.
	Delete(ctx context.Context, id string) error

	// Count returns the number of indexed activities.
	Count(ctx context.Context) (uint64, error)
}
