package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/mocks"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/infrastructure/config"
)

type sitesFixture struct {
	basePath    string
	store       *mocks.ActivityStore
	collection  *mocks.VectorDB
	openedNames []string
	handler     *SitesHandler
}

func newSitesFixture(t *testing.T) *sitesFixture {
	t.Helper()
	f := &sitesFixture{
		basePath:   t.TempDir(),
		store:      mocks.NewActivityStore(),
		collection: &mocks.VectorDB{},
	}
	f.handler = NewSitesHandler(f.basePath,
		func(name string) (Collection, error) {
			f.openedNames = append(f.openedNames, name)
			return f.collection, nil
		},
		func(_ context.Context, _ string) (ports.ActivityStore, error) {
			return f.store, nil
		},
	)
	return f
}

func TestSitesHandler_Create(t *testing.T) {
	f := newSitesFixture(t)

	result, err := f.handler.Create(t.Context(), "Example.com", CreateSiteOptions{
		URL:         "https://example.com",
		Description: "Main blog",
	})
	require.NoError(t, err)

	assert.True(t, result.Initialized)
	assert.FileExists(t, result.ConfigPath)
	assert.Equal(t, "example_com", result.Site.SiteID)
	assert.Equal(t, "activity_example_com", result.Site.Collection)
	assert.Equal(t, []string{"activity_example_com"}, f.openedNames)
	assert.Equal(t, 1, f.collection.EnsureCollectionCallCount)
	assert.Equal(t, 1, f.collection.CloseCallCount)

	require.Len(t, f.store.Audit, 1)
	assert.Equal(t, entities.AuditActionSiteCreate, f.store.Audit[0].Action)
	assert.Equal(t, "example_com", f.store.Audit[0].SiteID)

	sites, err := config.LoadSites(f.basePath)
	require.NoError(t, err)
	entry, err := sites.Get("Example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", entry.URL)

	t.Run("second site keeps config", func(t *testing.T) {
		result, err := f.handler.Create(t.Context(), "other", CreateSiteOptions{})
		require.NoError(t, err)
		assert.False(t, result.Initialized)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.handler.Create(t.Context(), "Example.com", CreateSiteOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestSitesHandler_Create_CollectionFailure(t *testing.T) {
	f := newSitesFixture(t)
	f.collection.EnsureCollectionErr = errors.New("qdrant down")

	_, err := f.handler.Create(t.Context(), "blog", CreateSiteOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")

	sites, err := config.LoadSites(f.basePath)
	require.NoError(t, err)
	assert.False(t, sites.Exists("blog"), "a failed create leaves no registry entry")
}

func TestSitesHandler_Create_EmptyName(t *testing.T) {
	f := newSitesFixture(t)

	_, err := f.handler.Create(t.Context(), "", CreateSiteOptions{})
	assert.ErrorIs(t, err, entities.ErrSiteRequired)
}

func TestSitesHandler_List(t *testing.T) {
	f := newSitesFixture(t)

	infos, err := f.handler.List()
	require.NoError(t, err)
	assert.Empty(t, infos)

	for _, name := range []string{"zeta", "alpha"} {
		_, err := f.handler.Create(t.Context(), name, CreateSiteOptions{})
		require.NoError(t, err)
	}

	infos, err = f.handler.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "activity_zeta", infos[1].Collection)
}

func TestSitesHandler_Delete(t *testing.T) {
	t.Run("refuses non-empty site without force", func(t *testing.T) {
		f := newSitesFixture(t)
		_, err := f.handler.Create(t.Context(), "blog", CreateSiteOptions{})
		require.NoError(t, err)
		f.store.Activities["blog"] = []entities.Activity{{ID: "a", SiteID: "blog"}}

		_, err = f.handler.Delete(t.Context(), "blog", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "use --force")
		assert.Zero(t, f.collection.DeleteCollectionCallCount)
	})

	t.Run("force removes rows, collection and entry", func(t *testing.T) {
		f := newSitesFixture(t)
		_, err := f.handler.Create(t.Context(), "blog", CreateSiteOptions{})
		require.NoError(t, err)
		f.store.Activities["blog"] = []entities.Activity{{ID: "a", SiteID: "blog"}, {ID: "b", SiteID: "blog"}}

		result, err := f.handler.Delete(t.Context(), "blog", true)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Deleted)
		assert.Empty(t, result.Warning)
		assert.Equal(t, 1, f.collection.DeleteCollectionCallCount)

		audit, err := f.store.FindAuditLog(t.Context(), "blog", 1)
		require.NoError(t, err)
		require.Len(t, audit, 1)
		assert.Equal(t, entities.AuditActionSiteDelete, audit[0].Action)

		sites, err := config.LoadSites(f.basePath)
		require.NoError(t, err)
		assert.False(t, sites.Exists("blog"))
	})

	t.Run("collection failure is a warning", func(t *testing.T) {
		f := newSitesFixture(t)
		_, err := f.handler.Create(t.Context(), "blog", CreateSiteOptions{})
		require.NoError(t, err)
		f.collection.DeleteCollectionErr = errors.New("not found")

		result, err := f.handler.Delete(t.Context(), "blog", false)
		require.NoError(t, err)
		assert.Contains(t, result.Warning, "activity_blog")
	})

	t.Run("unknown site", func(t *testing.T) {
		f := newSitesFixture(t)
		_, err := f.handler.Delete(t.Context(), "nope", true)
		require.Error(t, err)
	})
}
