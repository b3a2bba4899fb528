package mocks

import (
	"context"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB and ports.CollectionManager.
type VectorDB struct {
	Activities []entities.Activity
	Err        error

	EnsureCollectionErr error
	DeleteCollectionErr error

	// Call tracking
	SaveBatchCallCount        int
	SaveBatchLastActivities   []entities.Activity
	EnsureCollectionCallCount int
	DeleteCollectionCallCount int
	CloseCallCount            int
	LastSearchName            string
}

// Close records the call.
func (m *VectorDB) Close() error {
	m.CloseCallCount++
	return nil
}

// EnsureCollection records the call.
func (m *VectorDB) EnsureCollection(_ context.Context, _ uint64) error {
	m.EnsureCollectionCallCount++
	return m.EnsureCollectionErr
}

// DeleteCollection records the call.
func (m *VectorDB) DeleteCollection(_ context.Context) error {
	m.DeleteCollectionCallCount++
	return m.DeleteCollectionErr
}

// SaveBatch records the saved activities.
func (m *VectorDB) SaveBatch(_ context.Context, activities []entities.Activity) error {
	m.SaveBatchCallCount++
	m.SaveBatchLastActivities = activities
	return m.Err
}

// Search returns the first limit activities.
func (m *VectorDB) Search(_ context.Context, _ []float32, limit int) ([]entities.Activity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > len(m.Activities) {
		return m.Activities, nil
	}
	return m.Activities[:limit], nil
}

// SearchByName filters by activity name.
func (m *VectorDB) SearchByName(_ context.Context, _ []float32, name string, limit int) ([]entities.Activity, error) {
	m.LastSearchName = name
	if m.Err != nil {
		return nil, m.Err
	}
	var filtered []entities.Activity
	for i := range m.Activities {
		if m.Activities[i].Name == name {
			filtered = append(filtered, m.Activities[i])
		}
	}
	if limit > len(filtered) {
		return filtered, nil
	}
	return filtered[:limit], nil
}

// Delete returns the configured error.
func (m *VectorDB) Delete(_ context.Context, _ string) error {
	return m.Err
}

// Count returns the number of held activities.
func (m *VectorDB) Count(_ context.Context) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.Activities)), nil
}
