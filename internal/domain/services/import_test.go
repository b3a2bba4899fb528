package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/mocks"
	"github.com/ersonp/activity-core/internal/infrastructure/parsers"
)

const testSite = "test-site"

func newTestImportService(store *mocks.ActivityStore) (*ImportService, *mocks.Embedder, *mocks.VectorDB) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2, 0.3}}
	vectorDB := &mocks.VectorDB{}
	service := NewImportService(store, embedder, vectorDB)
	service.now = func() time.Time { return epoch }
	return service, embedder, vectorDB
}

func TestImportService_Import_ValidActivities(t *testing.T) {
	store := mocks.NewActivityStore()
	service, embedder, vectorDB := newTestImportService(store)

	raw := []parsers.RawActivity{
		{
			ID:        "a1",
			Name:      "post__published",
			Summary:   "Hello world",
			Content:   parsers.RawContent{Text: "Hello world was published"},
			Actor:     parsers.RawActor{Name: "Jane"},
			Published: "2024-03-01T12:00:00Z",
		},
		{
			ID:        "r1",
			Name:      entities.ActivityNameRewindComplete,
			Summary:   "Site restored",
			Published: "2024-03-02T12:00:00Z",
			Object:    parsers.RawObject{TargetTS: "1709294400"},
		},
	}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Indexed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, store.SaveCallCount)
	assert.Equal(t, 0, embedder.BatchCallCount)
	assert.Equal(t, 0, vectorDB.SaveBatchCallCount)

	saved := store.Activities[testSite]
	require.Len(t, saved, 2)
	assert.Equal(t, "Jane", saved[0].Actor)
	assert.Equal(t, "Hello world was published", saved[0].Text)
	assert.Equal(t, epoch, saved[0].CreatedAt)
	require.NotNil(t, saved[1].TargetTimestamp)
	assert.Equal(t, time.Unix(1709294400, 0).UTC(), *saved[1].TargetTimestamp)

	require.Len(t, store.Audit, 1)
	assert.Equal(t, entities.AuditActionImport, store.Audit[0].Action)
	assert.Equal(t, 2, store.Audit[0].Details["imported"])
}

func TestImportService_Import_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   parsers.RawActivity
		field string
	}{
		{
			name:  "missing name",
			raw:   parsers.RawActivity{Published: "2024-03-01T12:00:00Z"},
			field: "name",
		},
		{
			name:  "missing published",
			raw:   parsers.RawActivity{Name: "post__published"},
			field: "published",
		},
		{
			name:  "invalid published",
			raw:   parsers.RawActivity{Name: "post__published", Published: "yesterday"},
			field: "published",
		},
		{
			name:  "invalid target",
			raw:   parsers.RawActivity{Name: entities.ActivityNameRewindComplete, Published: "2024-03-01T12:00:00Z", Object: parsers.RawObject{TargetTS: "soon"}},
			field: "target_ts",
		},
		{
			name:  "published after 2262",
			raw:   parsers.RawActivity{Name: "post__published", Published: "2300-01-01T00:00:00Z"},
			field: "published",
		},
		{
			name:  "published before 1677",
			raw:   parsers.RawActivity{Name: "post__published", Published: "1600-01-01T00:00:00Z"},
			field: "published",
		},
		{
			name:  "target after 2262",
			raw:   parsers.RawActivity{Name: entities.ActivityNameRewindComplete, Published: "2024-03-01T12:00:00Z", Object: parsers.RawObject{TargetTS: "2300-01-01T00:00:00Z"}},
			field: "target_ts",
		},
		{
			name:  "target unix seconds too large",
			raw:   parsers.RawActivity{Name: entities.ActivityNameRewindComplete, Published: "2024-03-01T12:00:00Z", Object: parsers.RawObject{TargetTS: "99999999999"}},
			field: "target_ts",
		},
		{
			name:  "rewind without target",
			raw:   parsers.RawActivity{Name: entities.ActivityNameRewindComplete, Published: "2024-03-01T12:00:00Z"},
			field: "target_ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewActivityStore()
			service, _, _ := newTestImportService(store)

			result, err := service.Import(context.Background(), testSite, []parsers.RawActivity{tt.raw}, ImportOptions{})

			require.NoError(t, err)
			assert.Equal(t, 0, result.Imported)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, 1, result.Errors[0].Line)
			assert.Equal(t, 0, store.SaveCallCount)
		})
	}
}

func TestImportService_Import_KeepsValidRowsAlongsideErrors(t *testing.T) {
	store := mocks.NewActivityStore()
	service, _, _ := newTestImportService(store)

	raw := []parsers.RawActivity{
		{ID: "a1", Name: "post__published", Published: "2024-03-01T12:00:00Z", LineNum: 2},
		{ID: "a2", Published: "2024-03-01T13:00:00Z", LineNum: 3},
	}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, "line 3: missing required field: name", result.Errors[0].Error())
}

func TestImportService_Import_GeneratesMissingIDs(t *testing.T) {
	store := mocks.NewActivityStore()
	service, _, _ := newTestImportService(store)

	raw := []parsers.RawActivity{{Name: "post__published", Published: "2024-03-01T12:00:00Z"}}

	_, err := service.Import(context.Background(), testSite, raw, ImportOptions{})

	require.NoError(t, err)
	require.Len(t, store.LastSaved, 1)
	assert.NotEmpty(t, store.LastSaved[0].ID)
	assert.Equal(t, testSite, store.LastSaved[0].SiteID)
}

func TestImportService_Import_DryRun(t *testing.T) {
	store := mocks.NewActivityStore()
	service, embedder, _ := newTestImportService(store)

	raw := []parsers.RawActivity{{ID: "a1", Name: "post__published", Published: "2024-03-01T12:00:00Z"}}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{DryRun: true, Index: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, store.SaveCallCount)
	assert.Equal(t, 0, embedder.BatchCallCount)
	assert.Empty(t, store.Audit)
}

func TestImportService_Import_ConflictSkip(t *testing.T) {
	store := mocks.NewActivityStore()
	store.Activities[testSite] = []entities.Activity{
		{ID: "a1", SiteID: testSite, Name: "post__published", PublishedAt: epoch},
	}
	service, _, _ := newTestImportService(store)

	raw := []parsers.RawActivity{
		{ID: "a1", Name: "post__published", Summary: "changed", Published: "2024-03-01T12:00:00Z"},
		{ID: "a2", Name: "post__published", Published: "2024-03-01T13:00:00Z"},
		{ID: "a2", Name: "post__published", Published: "2024-03-01T13:00:00Z"},
	}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{OnConflict: ConflictSkip})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	found, err := store.FindActivity(context.Background(), testSite, "a1")
	require.NoError(t, err)
	assert.Empty(t, found.Summary)
}

func TestImportService_Import_ConflictOverwritePreservesCreatedAt(t *testing.T) {
	created := epoch.Add(-48 * time.Hour)
	store := mocks.NewActivityStore()
	store.Activities[testSite] = []entities.Activity{
		{ID: "a1", SiteID: testSite, Name: "post__published", PublishedAt: epoch, CreatedAt: created},
	}
	service, _, _ := newTestImportService(store)

	raw := []parsers.RawActivity{{ID: "a1", Name: "post__published", Summary: "changed", Published: "2024-03-01T12:00:00Z"}}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	found, err := store.FindActivity(context.Background(), testSite, "a1")
	require.NoError(t, err)
	assert.Equal(t, "changed", found.Summary)
	assert.Equal(t, created, found.CreatedAt)
}

func TestImportService_Import_Index(t *testing.T) {
	store := mocks.NewActivityStore()
	service, embedder, vectorDB := newTestImportService(store)

	raw := []parsers.RawActivity{{ID: "a1", Name: "plugin__updated", Summary: "Akismet updated", Published: "2024-03-01T12:00:00Z"}}

	result, err := service.Import(context.Background(), testSite, raw, ImportOptions{Index: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, embedder.BatchCallCount)
	assert.Equal(t, []string{"plugin__updated: Akismet updated"}, embedder.LastTexts)
	require.Len(t, vectorDB.SaveBatchLastActivities, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectorDB.SaveBatchLastActivities[0].Embedding)
	assert.Nil(t, store.Activities[testSite][0].Embedding)
}

func TestImportService_Import_Errors(t *testing.T) {
	raw := []parsers.RawActivity{{ID: "a1", Name: "post__published", Published: "2024-03-01T12:00:00Z"}}

	t.Run("site required", func(t *testing.T) {
		service, _, _ := newTestImportService(mocks.NewActivityStore())
		_, err := service.Import(context.Background(), "", raw, ImportOptions{})
		require.ErrorIs(t, err, entities.ErrSiteRequired)
	})

	t.Run("store failure", func(t *testing.T) {
		store := mocks.NewActivityStore()
		store.Err = errors.New("disk full")
		service, _, _ := newTestImportService(store)
		_, err := service.Import(context.Background(), testSite, raw, ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("embedder failure", func(t *testing.T) {
		service, embedder, _ := newTestImportService(mocks.NewActivityStore())
		embedder.Err = errors.New("rate limited")
		_, err := service.Import(context.Background(), testSite, raw, ImportOptions{Index: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generating embeddings")
	})

	t.Run("index without embedder", func(t *testing.T) {
		service := NewImportService(mocks.NewActivityStore(), nil, nil)
		_, err := service.Import(context.Background(), testSite, raw, ImportOptions{Index: true})
		require.Error(t, err)
	})
}
