package a

import (
	"context"
	"time"
)

type Activity struct {
	ID          string
	PublishedAt time.Time
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Store interface {
	FindActivity(ctx context.Context, siteID, id string) (*Activity, error)
	DeleteActivity(ctx context.Context, siteID, id string) error
}

type Resolver interface {
	RewriteStream(activities []Activity, viewFrom time.Time) ([]Activity, error)
}

func bad(ctx context.Context, items []Activity, e Embedder, s Store, r Resolver) {
	for _, item := range items {
		e.Embed(ctx, item.ID)                  // want "potential N\\+1: Embed called inside loop - use EmbedBatch"
		s.FindActivity(ctx, "site", item.ID)   // want "potential N\\+1: FindActivity called inside loop"
		r.RewriteStream(items, item.PublishedAt) // want "potential N\\+1: RewriteStream called inside loop - use Predicate and IsDiscarded"
	}
}

func nested(ctx context.Context, sites [][]Activity, e Embedder) {
	for _, site := range sites {
		for _, item := range site {
			e.Embed(ctx, item.ID) // want "potential N\\+1: Embed called inside loop"
		}
	}
}

func good(ctx context.Context, items []Activity, e Embedder, s Store) {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.ID)
		s.DeleteActivity(ctx, "site", item.ID)
	}
	_, _ = e.EmbedBatch(ctx, texts)
}

func allowedByComment(ctx context.Context, ids []string, s Store) {
	for _, id := range ids {
		s.FindActivity(ctx, "site", id) //loopcall:ok
	}
}
