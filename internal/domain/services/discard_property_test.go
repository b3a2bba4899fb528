package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// recursiveDiscarded is the memoized recursive form of the discard relation.
type recursiveDiscarded struct {
	pairs    []entities.RewindPair
	viewFrom time.Time
	memo     map[time.Time]bool
}

func (r *recursiveDiscarded) eval(ts time.Time) bool {
	if v, ok := r.memo[ts.UTC()]; ok {
		return v
	}
	v := ts.After(r.viewFrom)
	if !v {
		for _, p := range r.pairs {
			if p.BackupPoint.Before(ts) && ts.Before(p.RestorePoint) &&
				!p.RestorePoint.After(r.viewFrom) && !r.eval(p.RestorePoint) {
				v = true
				break
			}
		}
	}
	r.memo[ts.UTC()] = v
	return v
}

func buildStream(times, restores, backups []int) []entities.Activity {
	activities := make([]entities.Activity, 0, len(times)+len(restores))
	for i, ts := range times {
		activities = append(activities, activityAt(fmt.Sprintf("a%d", i), ts))
	}
	for i := 0; i < len(restores) && i < len(backups); i++ {
		activities = append(activities, rewindAt(fmt.Sprintf("r%d", i), restores[i], backups[i]))
	}
	return activities
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 25
	return parameters
}

func TestDiscardResolver_MatchesRecursiveDefinition(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("one-pass predicate equals the recursive relation", prop.ForAll(
		func(times, restores, backups []int, view int) bool {
			activities := buildStream(times, restores, backups)
			resolver := NewDiscardResolver()

			result, err := resolver.RewriteStream(activities, at(view))
			if err != nil {
				return false
			}

			pairs, err := resolver.ExtractRewindPairs(activities)
			if err != nil {
				return false
			}
			ref := &recursiveDiscarded{pairs: pairs, viewFrom: at(view), memo: map[time.Time]bool{}}

			for i := range result {
				if result[i].Discarded != ref.eval(result[i].PublishedAt) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.IntRange(0, 300),
	))

	properties.TestingRun(t)
}

func TestDiscardResolver_Properties(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("rewriting is idempotent", prop.ForAll(
		func(times, restores, backups []int, view int) bool {
			resolver := NewDiscardResolver()
			first, err := resolver.RewriteStream(buildStream(times, restores, backups), at(view))
			if err != nil {
				return false
			}
			second, err := resolver.RewriteStream(first, at(view))
			if err != nil {
				return false
			}
			for i := range first {
				if first[i].Discarded != second[i].Discarded {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.IntRange(0, 300),
	))

	properties.Property("without rewinds only future activities are discarded", prop.ForAll(
		func(times []int, view int) bool {
			result, err := NewDiscardResolver().RewriteStream(buildStream(times, nil, nil), at(view))
			if err != nil {
				return false
			}
			for i := range result {
				if result[i].Discarded != result[i].PublishedAt.After(at(view)) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.IntRange(0, 300),
	))

	properties.Property("restores after the observation point change nothing", prop.ForAll(
		func(times, restores, backups []int, view int) bool {
			resolver := NewDiscardResolver()
			base := buildStream(times, nil, nil)
			withFuture := buildStream(times, nil, nil)
			for i := 0; i < len(restores) && i < len(backups); i++ {
				withFuture = append(withFuture, rewindAt(fmt.Sprintf("f%d", i), view+1+restores[i], backups[i]))
			}

			a, err := resolver.RewriteStream(base, at(view))
			if err != nil {
				return false
			}
			b, err := resolver.RewriteStream(withFuture, at(view))
			if err != nil {
				return false
			}
			for i := range a {
				if a[i].Discarded != b[i].Discarded {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.SliceOf(gen.IntRange(0, 600)),
		gen.IntRange(0, 300),
	))

	properties.TestingRun(t)
}
