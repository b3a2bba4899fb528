package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/domain/services"
	"github.com/ersonp/activity-core/internal/infrastructure/config"
	embedder "github.com/ersonp/activity-core/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/activity-core/internal/infrastructure/llm/openai"
	"github.com/ersonp/activity-core/internal/infrastructure/logging"
	"github.com/ersonp/activity-core/internal/infrastructure/relationaldb"
	"github.com/ersonp/activity-core/internal/infrastructure/relationaldb/postgres"
	"github.com/ersonp/activity-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/activity-core/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config         *config.Config
	Site           config.SiteEntry
	SiteName       string
	SiteID         string
	Logger         *logging.Logger
	StreamHandler  *handlers.StreamHandler
	RewindsHandler *handlers.RewindsHandler
}

// internalDeps holds all dependencies including low-level components.
// OpenAI and Qdrant clients are built on demand so read-only commands work
// without API keys.
type internalDeps struct {
	Deps
	basePath string
	store    *relationaldb.Repository
	resolver *services.DiscardResolver
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sites, err := config.LoadSites(cwd)
	if err != nil {
		return fmt.Errorf("loading sites: %w", err)
	}

	if globalSite == "" {
		return errors.New("site is required (use --site flag)")
	}

	site, err := sites.Get(globalSite)
	if err != nil {
		return err
	}

	logger, err := newLogger(cwd, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := openStore(ctx, cwd, cfg, globalSite)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := services.NewDiscardResolver()

	deps := &internalDeps{
		Deps: Deps{
			Config:         cfg,
			Site:           *site,
			SiteName:       globalSite,
			SiteID:         config.SanitizeSiteName(globalSite),
			Logger:         logger,
			StreamHandler:  handlers.NewStreamHandler(store, resolver, logger),
			RewindsHandler: handlers.NewRewindsHandler(store, resolver),
		},
		basePath: cwd,
		store:    store,
		resolver: resolver,
	}

	logger.Debug("dependencies ready", "site", deps.SiteID, "driver", cfg.Database.Driver, "collection", site.Collection)

	return fn(deps)
}

// withStore provides direct activity store access.
func withStore(ctx context.Context, fn func(ports.ActivityStore, *Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(d.store, &d.Deps)
	})
}

// withImportHandler creates an ImportHandler and calls the provided function.
// The embedder and vector index are only opened when index is set.
func withImportHandler(ctx context.Context, index bool, fn func(*handlers.ImportHandler, *Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		if !index {
			importService := services.NewImportService(d.store, nil, nil)
			return fn(handlers.NewImportHandler(importService), &d.Deps)
		}

		emb, err := embedder.NewEmbedder(d.Config.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		return d.withVectorDB(func(repo *qdrant.Repository) error {
			importService := services.NewImportService(d.store, emb, repo)
			return fn(handlers.NewImportHandler(importService), &d.Deps)
		})
	})
}

// withQueryHandler creates a QueryHandler and calls the provided function.
func withQueryHandler(ctx context.Context, fn func(*handlers.QueryHandler, *Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		emb, err := embedder.NewEmbedder(d.Config.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		return d.withVectorDB(func(repo *qdrant.Repository) error {
			queryService := services.NewQueryService(emb, repo)
			return fn(handlers.NewQueryHandler(queryService, d.store, d.resolver, d.Logger), &d.Deps)
		})
	})
}

// withDigestHandler creates a DigestHandler and calls the provided function.
func withDigestHandler(ctx context.Context, fn func(*handlers.DigestHandler, *Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		llmClient, err := llm.NewClient(d.Config.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}

		digestService := services.NewDigestService(d.resolver, llmClient)
		return fn(handlers.NewDigestHandler(d.store, digestService), &d.Deps)
	})
}

// withVectorDB opens the site's Qdrant collection.
func (d *internalDeps) withVectorDB(fn func(*qdrant.Repository) error) error {
	repo, err := qdrant.NewRepository(d.Config.Qdrant, d.Site.Collection)
	if err != nil {
		return fmt.Errorf("creating qdrant repository: %w", err)
	}
	defer repo.Close()

	return fn(repo)
}

// newSitesHandler builds a SitesHandler whose collaborators load config on
// use, since creating the first site also writes the config.
func newSitesHandler(basePath string) *handlers.SitesHandler {
	openCollection := func(collection string) (handlers.Collection, error) {
		cfg, err := config.Load(basePath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		repo, err := qdrant.NewRepository(cfg.Qdrant, collection)
		if err != nil {
			return nil, fmt.Errorf("creating qdrant repository: %w", err)
		}
		return repo, nil
	}

	openSiteStore := func(ctx context.Context, siteName string) (ports.ActivityStore, error) {
		cfg, err := config.Load(basePath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return openStore(ctx, basePath, cfg, siteName)
	}

	return handlers.NewSitesHandler(basePath, openCollection, openSiteStore)
}

// openStore opens the relational store selected by the database config.
// SQLite gets one file per site unless database.path pins a shared file.
func openStore(ctx context.Context, basePath string, cfg *config.Config, siteName string) (*relationaldb.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	default:
		path := cfg.Database.Path
		switch {
		case path == "":
			path = config.SQLitePathForSite(basePath, siteName)
		case !filepath.IsAbs(path):
			path = filepath.Join(basePath, path)
		}
		repo, err := sqlite.NewRepository(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	}
}

// newLogger builds the runtime logger, letting --log-level win over config.
func newLogger(basePath string, cfg *config.Config) (*logging.Logger, error) {
	logCfg := cfg.Logging
	if globalLogLevel != "" {
		logCfg.Level = globalLogLevel
	}
	logger, err := logging.New(os.Stderr, basePath, logCfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
