package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/infrastructure/config"
	embedder "github.com/ersonp/activity-core/internal/infrastructure/embedder/openai"
)

// Collection is a site's vector collection, opened on demand.
type Collection interface {
	ports.CollectionManager
	Count(ctx context.Context) (uint64, error)
	Close() error
}

// CollectionOpener connects to the named vector collection.
type CollectionOpener func(collection string) (Collection, error)

// StoreOpener opens the activity store holding a site's rows.
type StoreOpener func(ctx context.Context, siteName string) (ports.ActivityStore, error)

// SitesHandler manages the site registry in .activity/sites.yaml together
// with each site's vector collection and stored activities.
type SitesHandler struct {
	basePath       string
	openCollection CollectionOpener
	openStore      StoreOpener
}

// NewSitesHandler creates a new sites handler.
func NewSitesHandler(basePath string, openCollection CollectionOpener, openStore StoreOpener) *SitesHandler {
	return &SitesHandler{
		basePath:       basePath,
		openCollection: openCollection,
		openStore:      openStore,
	}
}

// SiteInfo describes one registered site.
type SiteInfo struct {
	Name        string
	SiteID      string
	Collection  string
	URL         string
	Description string
}

// CreateSiteOptions describes a new site.
type CreateSiteOptions struct {
	URL         string
	Description string
}

// CreateSiteResult contains the result of creating a site.
type CreateSiteResult struct {
	Site        SiteInfo
	Initialized bool // A default config was written first
	ConfigPath  string
}

// DeleteSiteResult contains the result of deleting a site.
type DeleteSiteResult struct {
	Site    SiteInfo
	Deleted int    // Activity rows removed
	Warning string // Set when the vector collection could not be dropped
}

// List returns the registered sites sorted by name.
func (h *SitesHandler) List() ([]SiteInfo, error) {
	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}

	infos := make([]SiteInfo, 0, len(sites.Sites))
	for _, name := range sites.Names() {
		infos = append(infos, siteInfo(name, sites.Sites[name]))
	}
	return infos, nil
}

// Create registers a site, initializing the config directory on first use,
// and ensures its vector collection exists.
func (h *SitesHandler) Create(ctx context.Context, name string, opts CreateSiteOptions) (*CreateSiteResult, error) {
	if name == "" {
		return nil, entities.ErrSiteRequired
	}

	result := &CreateSiteResult{ConfigPath: config.ConfigFilePath(h.basePath)}

	if !config.Exists(h.basePath) {
		if err := config.WriteDefault(h.basePath); err != nil {
			return nil, fmt.Errorf("initializing config: %w", err)
		}
		result.Initialized = true
	}

	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}
	if sites.Exists(name) {
		return nil, fmt.Errorf("site %q already exists", name)
	}

	entry := config.SiteEntry{
		Collection:  config.GenerateCollectionName(name),
		URL:         opts.URL,
		Description: opts.Description,
	}

	if err := h.withCollection(entry.Collection, func(c Collection) error {
		return c.EnsureCollection(ctx, embedder.VectorSize)
	}); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	sites.Add(name, entry)
	if err := sites.Save(h.basePath); err != nil {
		return nil, err
	}

	result.Site = siteInfo(name, entry)

	if err := h.withStore(ctx, name, func(store ports.ActivityStore) error {
		return store.LogAction(ctx, result.Site.SiteID, entities.AuditActionSiteCreate, "", map[string]any{
			"collection": entry.Collection,
		})
	}); err != nil {
		return nil, fmt.Errorf("recording site creation: %w", err)
	}

	return result, nil
}

// Delete removes a site's activities, vector collection and registry entry.
// Without force, a site that still holds activities is refused.
func (h *SitesHandler) Delete(ctx context.Context, name string, force bool) (*DeleteSiteResult, error) {
	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}

	entry, err := sites.Get(name)
	if err != nil {
		return nil, err
	}

	result := &DeleteSiteResult{Site: siteInfo(name, *entry)}
	siteID := result.Site.SiteID

	err = h.withStore(ctx, name, func(store ports.ActivityStore) error {
		if !force {
			count, err := store.CountActivities(ctx, siteID)
			if err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("site %q contains %d activities, use --force to delete", name, count)
			}
		}

		deleted, err := store.DeleteSite(ctx, siteID)
		if err != nil {
			return err
		}
		result.Deleted = deleted

		return store.LogAction(ctx, siteID, entities.AuditActionSiteDelete, "", map[string]any{
			"deleted": deleted,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := h.withCollection(entry.Collection, func(c Collection) error {
		return c.DeleteCollection(ctx)
	}); err != nil {
		result.Warning = fmt.Sprintf("could not delete collection %q: %v", entry.Collection, err)
	}

	sites.Remove(name)
	if err := sites.Save(h.basePath); err != nil {
		return nil, err
	}

	return result, nil
}

func (h *SitesHandler) withCollection(name string, fn func(Collection) error) error {
	if h.openCollection == nil {
		return nil
	}
	c, err := h.openCollection(name)
	if err != nil {
		return err
	}
	return errors.Join(fn(c), c.Close())
}

func (h *SitesHandler) withStore(ctx context.Context, name string, fn func(ports.ActivityStore) error) error {
	if h.openStore == nil {
		return nil
	}
	store, err := h.openStore(ctx, name)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	return errors.Join(fn(store), store.Close())
}

func siteInfo(name string, entry config.SiteEntry) SiteInfo {
	return SiteInfo{
		Name:        name,
		SiteID:      config.SanitizeSiteName(name),
		Collection:  entry.Collection,
		URL:         entry.URL,
		Description: entry.Description,
	}
}
