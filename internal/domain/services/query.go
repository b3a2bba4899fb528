package services

import (
	"context"
	"fmt"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

// QueryService handles semantic search over indexed activities.
type QueryService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
}

// NewQueryService creates a new query service.
func NewQueryService(embedder ports.Embedder, vectorDB ports.VectorDB) *QueryService {
	return &QueryService{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Search finds activities semantically similar to the query.
func (s *QueryService) Search(ctx context.Context, query string, limit int) ([]entities.Activity, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	activities, err := s.vectorDB.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching activities: %w", err)
	}

	return activities, nil
}

// SearchByName finds activities of one kind (e.g. "plugin__updated").
func (s *QueryService) SearchByName(ctx context.Context, query, name string, limit int) ([]entities.Activity, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	activities, err := s.vectorDB.SearchByName(ctx, embedding, name, limit)
	if err != nil {
		return nil, fmt.Errorf("searching activities by name: %w", err)
	}

	return activities, nil
}
