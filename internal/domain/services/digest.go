package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

// NoActivityDigest is returned when nothing survived in the window.
const NoActivityDigest = "No surviving activity in this period."

// DigestWindow bounds the activities a digest covers. Zero values are unbounded.
type DigestWindow struct {
	Since    time.Time
	Until    time.Time
	ViewFrom time.Time
}

// Digest is a written summary of a site's surviving activity.
type Digest struct {
	Text      string
	Surviving int
	Discarded int
}

// DigestService writes summaries of the activity that was not rolled back.
type DigestService struct {
	resolver   *DiscardResolver
	summarizer ports.Summarizer
}

// NewDigestService creates a new digest service.
func NewDigestService(resolver *DiscardResolver, summarizer ports.Summarizer) *DigestService {
	return &DigestService{
		resolver:   resolver,
		summarizer: summarizer,
	}
}

// Summarize resolves the full stream, keeps the non-discarded activities
// inside the window and asks the summarizer to describe them.
func (s *DigestService) Summarize(ctx context.Context, siteID string, activities []entities.Activity, window DigestWindow) (*Digest, error) {
	resolved, err := s.resolver.RewriteStream(activities, window.ViewFrom)
	if err != nil {
		return nil, fmt.Errorf("resolving stream: %w", err)
	}

	digest := &Digest{}
	surviving := make([]entities.Activity, 0, len(resolved))
	for i := range resolved {
		a := &resolved[i]
		if !window.Since.IsZero() && a.PublishedAt.Before(window.Since) {
			continue
		}
		if !window.Until.IsZero() && a.PublishedAt.After(window.Until) {
			continue
		}
		if a.Discarded {
			digest.Discarded++
			continue
		}
		surviving = append(surviving, *a)
	}
	digest.Surviving = len(surviving)

	if len(surviving) == 0 {
		digest.Text = NoActivityDigest
		return digest, nil
	}

	text, err := s.summarizer.Summarize(ctx, siteID, surviving)
	if err != nil {
		return nil, fmt.Errorf("summarizing activities: %w", err)
	}
	digest.Text = text

	return digest, nil
}
