package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/listing"
	"github.com/teemow/driveway/internal/logging"
	"github.com/teemow/driveway/internal/nav"
	"github.com/teemow/driveway/internal/session"
	"github.com/teemow/driveway/internal/upload"
)

// ProxyAPI is the backend-proxy surface the browser needs: listing and
// mutation operations plus the upload protocol.
type ProxyAPI interface {
	listing.API
	upload.API
}

// Config carries the collaborators a Controller is built from.
type Config struct {
	// Session manages the OAuth token lifecycle.
	Session *session.Manager

	// Proxy is the backend-proxy client.
	Proxy ProxyAPI

	// Notifier receives upload notifications.
	Notifier upload.Notifier

	// RootFolderID is the id the navigation state is rooted at.
	RootFolderID string

	// RootFolderName is the display name used for the root crumb until
	// the proxy resolves the real one.
	RootFolderName string

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics is the metrics recorder. Optional.
	Metrics *instrumentation.Metrics
}

// Controller drives the folder browser: it owns the navigation state and
// coordinates the session manager, listing adapter, and upload
// orchestrator so that every user action leaves the view resynchronized.
//
// All operations are serialized by an internal mutex; the navigation
// state is never mutated concurrently and no two listing refreshes for
// the same folder are ever in flight together.
type Controller struct {
	session *session.Manager
	nav     *nav.State
	listing *listing.Adapter
	uploads *upload.Orchestrator
	logger  *slog.Logger

	mu sync.Mutex
}

// NewController wires a browser controller from its collaborators.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Proxy == nil {
		return nil, fmt.Errorf("proxy client is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if cfg.RootFolderID == "" {
		return nil, fmt.Errorf("root folder id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	navState := nav.NewState(cfg.RootFolderID, cfg.RootFolderName)

	adapter, err := listing.NewAdapter(cfg.Proxy, cfg.Session.Token, navState.CurrentFolderID,
		listing.WithLogger(cfg.Logger),
		listing.WithMetrics(cfg.Metrics))
	if err != nil {
		return nil, fmt.Errorf("creating listing adapter: %w", err)
	}

	uploads, err := upload.NewOrchestrator(cfg.Proxy, cfg.Session.Token, cfg.Notifier,
		upload.WithLogger(cfg.Logger),
		upload.WithMetrics(cfg.Metrics))
	if err != nil {
		return nil, fmt.Errorf("creating upload orchestrator: %w", err)
	}

	return &Controller{
		session: cfg.Session,
		nav:     navState,
		listing: adapter,
		uploads: uploads,
		logger:  cfg.Logger,
	}, nil
}

// Activate bootstraps the browser: it establishes the session (redeeming
// pendingCode if one was delivered by the authorization redirect),
// resolves the root folder's display name, and loads the root listing.
// An unauthenticated outcome is not an error; the caller prompts for a
// connect flow instead.
func (c *Controller) Activate(ctx context.Context, pendingCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Establish(ctx, pendingCode); err != nil {
		return err
	}
	if !c.session.Authenticated() {
		return nil
	}

	// Best effort: a failed lookup keeps the configured default name.
	if name, err := c.listing.FolderDisplayName(ctx, c.nav.CurrentFolderID()); err != nil {
		c.logger.Warn("could not resolve root folder name", logging.Err(err))
	} else {
		c.nav.SetRootName(name)
	}

	return c.refresh(ctx)
}

// Connect starts a fresh authorization flow and returns the URL the user
// must visit.
func (c *Controller) Connect(ctx context.Context) (string, error) {
	return c.session.Connect(ctx)
}

// Authenticated reports whether the session holds an access token.
func (c *Controller) Authenticated() bool {
	return c.session.Authenticated()
}

// OpenFolder descends into a folder shown in the current listing and
// refreshes the view.
func (c *Controller) OpenFolder(ctx context.Context, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return err
	}

	entry, ok := c.findEntry(folderID)
	if !ok {
		return fmt.Errorf("no entry %s in the current folder", folderID)
	}
	if !entry.IsFolder() {
		return fmt.Errorf("entry %q is not a folder", entry.Name)
	}

	c.nav.EnterFolder(entry.ID, entry.Name)
	return c.refresh(ctx)
}

// Back returns to the previously visited folder and refreshes the view.
// At the root it is a no-op.
func (c *Controller) Back(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return err
	}

	if !c.nav.GoBack() {
		return nil
	}
	return c.refresh(ctx)
}

// JumpTo moves directly to a folder in the breadcrumb trail and refreshes
// the view. Unknown or current ids are ignored.
func (c *Controller) JumpTo(ctx context.Context, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return err
	}

	if !c.nav.JumpToBreadcrumb(folderID) {
		return nil
	}
	return c.refresh(ctx)
}

// CreateFolder creates a folder in the current folder. The listing is
// refreshed only after the proxy confirms the creation, so a failure is
// never masked by a seemingly-normal listing.
func (c *Controller) CreateFolder(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return "", err
	}

	id, err := c.listing.CreateFolder(ctx, name, c.nav.CurrentFolderID())
	if err != nil {
		return "", err
	}

	if err := c.refresh(ctx); err != nil {
		return id, err
	}
	return id, nil
}

// DeleteEntry removes an entry from the current folder and refreshes the
// listing once the proxy confirms the deletion.
func (c *Controller) DeleteEntry(ctx context.Context, entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return err
	}

	if err := c.listing.DeleteEntry(ctx, entryID); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// Upload runs an upload batch into the current folder. The listing is
// refreshed exactly once after the batch concludes, whether it succeeded
// or stopped at a failing file.
func (c *Controller) Upload(ctx context.Context, files []upload.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuth(); err != nil {
		return err
	}

	batchErr := c.uploads.UploadBatch(ctx, files, c.nav.CurrentFolderID())

	if err := c.refresh(ctx); err != nil {
		if batchErr != nil {
			c.logger.Warn("post-batch listing refresh failed", logging.Err(err))
			return batchErr
		}
		return err
	}
	return batchErr
}

// Entries returns the current listing.
func (c *Controller) Entries() []listing.DirectoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listing.Entries()
}

// Breadcrumbs returns the breadcrumb trail, root first.
func (c *Controller) Breadcrumbs() []nav.Crumb {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Breadcrumbs()
}

// CurrentFolderID returns the id of the folder the user is looking at.
func (c *Controller) CurrentFolderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.CurrentFolderID()
}

// ViewerURL returns the provider viewer URL for an entry in the current
// listing.
func (c *Controller) ViewerURL(entryID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.findEntry(entryID)
	if !ok {
		return "", fmt.Errorf("no entry %s in the current folder", entryID)
	}
	return entry.ViewerURL(), nil
}

func (c *Controller) requireAuth() error {
	if !c.session.Authenticated() {
		return session.ErrUnauthenticated
	}
	return nil
}

func (c *Controller) refresh(ctx context.Context) error {
	return c.listing.Refresh(ctx, c.nav.CurrentFolderID())
}

func (c *Controller) findEntry(id string) (listing.DirectoryEntry, bool) {
	for _, entry := range c.listing.Entries() {
		if entry.ID == id {
			return entry, true
		}
	}
	return listing.DirectoryEntry{}, false
}
