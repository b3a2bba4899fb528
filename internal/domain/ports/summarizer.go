package ports

import (
	"context"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// Summarizer writes a short prose digest of a site's surviving activity.
type Summarizer interface {
	Summarize(ctx context.Context, siteID string, activities []entities.Activity) (string, error)
}
