package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// DiscardResolver decides which activities were rolled back by a later restore.
type DiscardResolver struct {
	now func() time.Time
}

// NewDiscardResolver creates a resolver that observes from the wall clock by default.
func NewDiscardResolver() *DiscardResolver {
	return NewDiscardResolverWithClock(time.Now)
}

// NewDiscardResolverWithClock creates a resolver whose default observation
// point comes from now.
func NewDiscardResolverWithClock(now func() time.Time) *DiscardResolver {
	if now == nil {
		now = time.Now
	}
	return &DiscardResolver{now: now}
}

// ExtractRewindPairs builds one pair per rewind-complete activity.
// A rewind-complete activity without a target timestamp fails the whole call.
func (r *DiscardResolver) ExtractRewindPairs(activities []entities.Activity) ([]entities.RewindPair, error) {
	var pairs []entities.RewindPair
	for i := range activities {
		a := &activities[i]
		if !a.IsRewindComplete() {
			continue
		}
		if a.TargetTimestamp == nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, entities.ErrMissingTargetTimestamp)
		}
		pairs = append(pairs, entities.RewindPair{
			ActivityID:   a.ID,
			RestorePoint: a.PublishedAt,
			BackupPoint:  *a.TargetTimestamp,
		})
	}
	return pairs, nil
}

// Predicate builds the discard predicate for activities as seen from viewFrom.
// A zero viewFrom means now.
func (r *DiscardResolver) Predicate(activities []entities.Activity, viewFrom time.Time) (*DiscardPredicate, error) {
	viewFrom = r.ObservationPoint(viewFrom)

	pairs, err := r.ExtractRewindPairs(activities)
	if err != nil {
		return nil, err
	}

	return NewDiscardPredicate(pairs, viewFrom), nil
}

// ObservationPoint returns viewFrom, or the resolver clock when viewFrom is zero.
func (r *DiscardResolver) ObservationPoint(viewFrom time.Time) time.Time {
	if viewFrom.IsZero() {
		return r.now()
	}
	return viewFrom
}

// RewriteStream returns copies of activities with Discarded set, in input order.
// The input slice is left untouched. A zero viewFrom means now.
func (r *DiscardResolver) RewriteStream(activities []entities.Activity, viewFrom time.Time) ([]entities.Activity, error) {
	pred, err := r.Predicate(activities, viewFrom)
	if err != nil {
		return nil, err
	}

	annotated := make([]entities.Activity, len(activities))
	for i := range activities {
		annotated[i] = activities[i]
		annotated[i].Discarded = pred.IsDiscarded(activities[i].PublishedAt)
	}
	return annotated, nil
}

// DiscardPredicate answers whether a timestamp is discarded from one
// observation point. It is not safe for concurrent use.
type DiscardPredicate struct {
	viewFrom time.Time
	// live holds visible restores that were not themselves rolled back,
	// ordered by restore point descending.
	live []entities.RewindPair
	memo map[time.Time]bool
}

// NewDiscardPredicate builds a predicate from rewind pairs. Pairs restored
// after viewFrom are ignored.
//
// isDiscarded(rp) only depends on pairs with a strictly later restore point,
// so walking restores from latest to earliest settles every pair in one pass.
func NewDiscardPredicate(pairs []entities.RewindPair, viewFrom time.Time) *DiscardPredicate {
	visible := make([]entities.RewindPair, 0, len(pairs))
	for _, p := range pairs {
		if !p.RestorePoint.After(viewFrom) {
			visible = append(visible, p)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].RestorePoint.After(visible[j].RestorePoint)
	})

	pred := &DiscardPredicate{
		viewFrom: viewFrom,
		live:     make([]entities.RewindPair, 0, len(visible)),
		memo:     make(map[time.Time]bool, len(visible)),
	}
	for _, p := range visible {
		if !pred.coveredByLive(p.RestorePoint) {
			pred.live = append(pred.live, p)
		}
	}
	return pred
}

// IsDiscarded reports whether ts is discarded. Anything after the
// observation point counts as discarded.
func (p *DiscardPredicate) IsDiscarded(ts time.Time) bool {
	// UTC drops the location and monotonic reading, so equal instants share a key.
	key := ts.UTC()
	if v, ok := p.memo[key]; ok {
		return v
	}
	v := ts.After(p.viewFrom) || p.coveredByLive(ts)
	p.memo[key] = v
	return v
}

// ViewFrom returns the observation point.
func (p *DiscardPredicate) ViewFrom() time.Time {
	return p.viewFrom
}

// Effective returns the restores that still shape history, latest first.
func (p *DiscardPredicate) Effective() []entities.RewindPair {
	out := make([]entities.RewindPair, len(p.live))
	copy(out, p.live)
	return out
}

func (p *DiscardPredicate) coveredByLive(ts time.Time) bool {
	for _, pair := range p.live {
		if pair.Covers(ts) {
			return true
		}
	}
	return false
}
