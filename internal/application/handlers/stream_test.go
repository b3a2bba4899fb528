package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/mocks"
	"github.com/ersonp/activity-core/internal/domain/services"
)

const testSite = "example_com"

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func post(id string, sec int) entities.Activity {
	return entities.Activity{ID: id, SiteID: testSite, Name: "post__published", Summary: "Post " + id, PublishedAt: at(sec)}
}

func restore(id string, rp, bp int) entities.Activity {
	target := at(bp)
	return entities.Activity{
		ID:              id,
		SiteID:          testSite,
		Name:            entities.ActivityNameRewindComplete,
		Summary:         "Site restored",
		PublishedAt:     at(rp),
		TargetTimestamp: &target,
	}
}

// seededStore holds a site where "inside" was rolled back by "r1".
func seededStore() *mocks.ActivityStore {
	store := mocks.NewActivityStore()
	store.Activities[testSite] = []entities.Activity{
		post("before", 30),
		post("inside", 75),
		restore("r1", 100, 50),
		post("after", 150),
	}
	return store
}

func ids(activities []entities.Activity) []string {
	out := make([]string, 0, len(activities))
	for i := range activities {
		out = append(out, activities[i].ID)
	}
	return out
}

func discardedIDs(activities []entities.Activity) []string {
	var out []string
	for i := range activities {
		if activities[i].Discarded {
			out = append(out, activities[i].ID)
		}
	}
	return out
}

func TestStreamHandler_Handle(t *testing.T) {
	resolver := services.NewDiscardResolverWithClock(func() time.Time { return at(200) })

	tests := []struct {
		name          string
		opts          StreamOptions
		wantIDs       []string
		wantDiscarded []string
		wantTotal     int
	}{
		{
			name:          "whole stream newest first",
			opts:          StreamOptions{},
			wantIDs:       []string{"after", "r1", "inside", "before"},
			wantDiscarded: []string{"inside"},
			wantTotal:     4,
		},
		{
			name:          "hide discarded",
			opts:          StreamOptions{HideDiscarded: true},
			wantIDs:       []string{"after", "r1", "before"},
			wantDiscarded: nil,
			wantTotal:     4,
		},
		{
			name:          "window before the restore still sees it",
			opts:          StreamOptions{Until: at(80)},
			wantIDs:       []string{"inside", "before"},
			wantDiscarded: []string{"inside"},
			wantTotal:     2,
		},
		{
			name:          "since",
			opts:          StreamOptions{Since: at(100)},
			wantIDs:       []string{"after", "r1"},
			wantDiscarded: nil,
			wantTotal:     2,
		},
		{
			name:          "limit",
			opts:          StreamOptions{Limit: 2},
			wantIDs:       []string{"after", "r1"},
			wantDiscarded: nil,
			wantTotal:     4,
		},
		{
			name:          "viewed from before the restore",
			opts:          StreamOptions{ViewFrom: at(90)},
			wantIDs:       []string{"after", "r1", "inside", "before"},
			wantDiscarded: []string{"after", "r1"},
			wantTotal:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewStreamHandler(seededStore(), resolver, nil)

			result, err := handler.Handle(t.Context(), testSite, tt.opts)
			require.NoError(t, err)
			assert.True(t, result.Annotated)
			assert.Empty(t, result.Warning)
			assert.Equal(t, tt.wantIDs, ids(result.Activities))
			assert.Equal(t, tt.wantDiscarded, discardedIDs(result.Activities))
			assert.Equal(t, tt.wantTotal, result.Total)
		})
	}
}

func TestStreamHandler_Handle_ViewFromDefaultsToClock(t *testing.T) {
	resolver := services.NewDiscardResolverWithClock(func() time.Time { return at(200) })
	handler := NewStreamHandler(seededStore(), resolver, nil)

	result, err := handler.Handle(t.Context(), testSite, StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, at(200), result.ViewFrom)
	assert.Equal(t, testSite, result.SiteID)
	assert.Equal(t, 1, result.Discarded)
}

func TestStreamHandler_Handle_MissingTargetFallsBack(t *testing.T) {
	store := seededStore()
	store.Activities[testSite] = append(store.Activities[testSite], entities.Activity{
		ID:          "broken",
		SiteID:      testSite,
		Name:        entities.ActivityNameRewindComplete,
		PublishedAt: at(120),
		Discarded:   true,
	})
	logger := &mocks.Logger{}
	handler := NewStreamHandler(store, services.NewDiscardResolver(), logger)

	result, err := handler.Handle(t.Context(), testSite, StreamOptions{ViewFrom: at(200)})
	require.NoError(t, err)
	assert.False(t, result.Annotated)
	assert.Contains(t, result.Warning, "broken")
	assert.Len(t, result.Activities, 5)
	assert.Empty(t, discardedIDs(result.Activities))
	assert.Zero(t, result.Discarded)
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestStreamHandler_Handle_Errors(t *testing.T) {
	t.Run("site required", func(t *testing.T) {
		handler := NewStreamHandler(mocks.NewActivityStore(), services.NewDiscardResolver(), nil)
		_, err := handler.Handle(t.Context(), "", StreamOptions{})
		assert.ErrorIs(t, err, entities.ErrSiteRequired)
	})

	t.Run("store failure", func(t *testing.T) {
		store := mocks.NewActivityStore()
		store.Err = errors.New("disk on fire")
		handler := NewStreamHandler(store, services.NewDiscardResolver(), nil)

		_, err := handler.Handle(t.Context(), testSite, StreamOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing activities")
	})
}

func TestStreamHandler_Handle_EmptySite(t *testing.T) {
	handler := NewStreamHandler(mocks.NewActivityStore(), services.NewDiscardResolver(), nil)

	result, err := handler.Handle(t.Context(), testSite, StreamOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Activities)
	assert.Zero(t, result.Total)
}
