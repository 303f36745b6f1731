package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/logging"
	"github.com/teemow/driveway/internal/proxy"
)

// FolderMimeType is the provider's sentinel mime type for folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Kind classifies a directory entry.
type Kind int

const (
	// KindFile is any entry whose mime type is not the folder sentinel.
	KindFile Kind = iota

	// KindFolder is an entry carrying the folder sentinel mime type.
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// DirectoryEntry is the view model for one listing entry. Immutable once
// constructed; the adapter replaces the whole listing on every refresh.
type DirectoryEntry struct {
	ID       string
	Name     string
	MimeType string
	Kind     Kind
	Icon     string
}

// IsFolder reports whether the entry can be descended into.
func (e DirectoryEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// ViewerURL returns the provider's web viewer URL for a file entry.
// Folders open in the drive folder view instead.
func (e DirectoryEntry) ViewerURL() string {
	if e.IsFolder() {
		return fmt.Sprintf("https://drive.google.com/drive/folders/%s", e.ID)
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", e.ID)
}

// API is the subset of backend-proxy operations the adapter needs.
type API interface {
	ListEntries(ctx context.Context, accessToken, parentFolderID string) ([]proxy.Entry, error)
	CreateFolder(ctx context.Context, accessToken, name, parentFolderID string) (string, error)
	DeleteEntry(ctx context.Context, accessToken, entryID string) error
	GetFolderDisplayName(ctx context.Context, accessToken, folderID string) (string, error)
}

// TokenFunc returns the current access token, refreshing it first when
// needed. Supplied by the session manager.
type TokenFunc func(ctx context.Context) (string, error)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithMetrics sets the adapter's metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = metrics
	}
}

// Adapter turns raw proxy entries into the DirectoryEntry view model for
// the folder the user is looking at.
//
// A refresh requested for one folder can resolve after the navigation
// state has moved on. The adapter tags each request with the folder it
// targeted and discards the response when currentFolder no longer
// matches, so a slow response for the old folder never overwrites the
// listing of the new one. A failed refresh keeps the previous listing.
type Adapter struct {
	api           API
	token         TokenFunc
	currentFolder func() string
	logger        *slog.Logger
	metrics       *instrumentation.Metrics

	mu      sync.Mutex
	entries []DirectoryEntry
}

// NewAdapter creates a listing adapter. currentFolder must report the
// navigation state's current folder id at call time.
func NewAdapter(api API, token TokenFunc, currentFolder func() string, opts ...Option) (*Adapter, error) {
	if api == nil {
		return nil, fmt.Errorf("proxy API is required")
	}
	if token == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if currentFolder == nil {
		return nil, fmt.Errorf("current-folder source is required")
	}

	a := &Adapter{
		api:           api,
		token:         token,
		currentFolder: currentFolder,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Refresh fetches the children of folderID and replaces the held listing
// wholesale. An empty result is a valid empty listing. On failure the
// previous listing is retained and the error returned. A response
// arriving after the user has navigated elsewhere is discarded without
// error.
func (a *Adapter) Refresh(ctx context.Context, folderID string) error {
	accessToken, err := a.token(ctx)
	if err != nil {
		a.metrics.RecordListingRefresh(ctx, "failure")
		return fmt.Errorf("refreshing listing: %w", err)
	}

	raw, err := a.api.ListEntries(ctx, accessToken, folderID)
	if err != nil {
		a.metrics.RecordListingRefresh(ctx, "failure")
		a.logger.Error("listing refresh failed, keeping previous entries",
			logging.FolderID(folderID), logging.Err(err))
		return fmt.Errorf("refreshing listing: %w", err)
	}

	if current := a.currentFolder(); current != folderID {
		a.metrics.RecordStaleListingDiscard(ctx)
		a.logger.Debug("discarding stale listing response",
			logging.FolderID(folderID),
			slog.String("current_folder_id", current))
		return nil
	}

	entries := make([]DirectoryEntry, 0, len(raw))
	for _, entry := range raw {
		entries = append(entries, classify(entry))
	}

	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()

	a.metrics.RecordListingRefresh(ctx, "success")
	a.logger.Debug("listing refreshed",
		logging.FolderID(folderID), slog.Int("entries", len(entries)))
	return nil
}

// Entries returns a copy of the most recently accepted listing.
func (a *Adapter) Entries() []DirectoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]DirectoryEntry, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// CreateFolder creates a folder under parentFolderID and returns its id.
// The caller refreshes the listing on success.
func (a *Adapter) CreateFolder(ctx context.Context, name, parentFolderID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("folder name must not be empty")
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return "", fmt.Errorf("creating folder: %w", err)
	}

	id, err := a.api.CreateFolder(ctx, accessToken, name, parentFolderID)
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}

	a.logger.Info("folder created",
		logging.FolderID(parentFolderID), logging.EntryID(id))
	return id, nil
}

// DeleteEntry removes an entry. The caller refreshes the listing on
// success.
func (a *Adapter) DeleteEntry(ctx context.Context, entryID string) error {
	if entryID == "" {
		return fmt.Errorf("entry id must not be empty")
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	if err := a.api.DeleteEntry(ctx, accessToken, entryID); err != nil {
		return fmt.Errorf("deleting entry %s: %w", entryID, err)
	}

	a.logger.Info("entry deleted", logging.EntryID(entryID))
	return nil
}

// FolderDisplayName resolves a folder's display name.
func (a *Adapter) FolderDisplayName(ctx context.Context, folderID string) (string, error) {
	accessToken, err := a.token(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving folder name: %w", err)
	}

	name, err := a.api.GetFolderDisplayName(ctx, accessToken, folderID)
	if err != nil {
		return "", fmt.Errorf("resolving folder name for %s: %w", folderID, err)
	}
	return name, nil
}

func classify(entry proxy.Entry) DirectoryEntry {
	kind := KindFile
	if entry.MimeType == FolderMimeType {
		kind = KindFolder
	}

	return DirectoryEntry{
		ID:       entry.ID,
		Name:     entry.Name,
		MimeType: entry.MimeType,
		Kind:     kind,
		Icon:     kind.String(),
	}
}
