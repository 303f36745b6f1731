package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/driveway/internal/proxy"
)

type fakeAPI struct {
	entries    []proxy.Entry
	listErr    error
	listCalls  int
	listedWith []string

	createdID string
	createErr error

	deleteErr   error
	deletedWith string

	folderName string
	nameErr    error
}

func (f *fakeAPI) ListEntries(ctx context.Context, accessToken, parentFolderID string) ([]proxy.Entry, error) {
	f.listCalls++
	f.listedWith = append(f.listedWith, parentFolderID)
	return f.entries, f.listErr
}

func (f *fakeAPI) CreateFolder(ctx context.Context, accessToken, name, parentFolderID string) (string, error) {
	return f.createdID, f.createErr
}

func (f *fakeAPI) DeleteEntry(ctx context.Context, accessToken, entryID string) error {
	f.deletedWith = entryID
	return f.deleteErr
}

func (f *fakeAPI) GetFolderDisplayName(ctx context.Context, accessToken, folderID string) (string, error) {
	return f.folderName, f.nameErr
}

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func staticFolder(id string) func() string {
	return func() string { return id }
}

func TestRefresh_ClassifiesEntries(t *testing.T) {
	api := &fakeAPI{entries: []proxy.Entry{
		{ID: "f1", Name: "Reports", MimeType: FolderMimeType},
		{ID: "d1", Name: "notes.txt", MimeType: "text/plain"},
	}}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	require.NoError(t, a.Refresh(context.Background(), "root"))

	entries := a.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, KindFolder, entries[0].Kind)
	assert.Equal(t, "folder", entries[0].Icon)
	assert.True(t, entries[0].IsFolder())

	assert.Equal(t, KindFile, entries[1].Kind)
	assert.Equal(t, "file", entries[1].Icon)
	assert.False(t, entries[1].IsFolder())
}

func TestRefresh_EmptyListingIsValid(t *testing.T) {
	api := &fakeAPI{entries: []proxy.Entry{}}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	require.NoError(t, a.Refresh(context.Background(), "root"))
	assert.Empty(t, a.Entries())
}

func TestRefresh_FailureKeepsPreviousListing(t *testing.T) {
	api := &fakeAPI{entries: []proxy.Entry{
		{ID: "d1", Name: "notes.txt", MimeType: "text/plain"},
	}}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	require.NoError(t, a.Refresh(context.Background(), "root"))
	require.Len(t, a.Entries(), 1)

	api.listErr = errors.New("proxy unavailable")
	err = a.Refresh(context.Background(), "root")

	require.Error(t, err)
	assert.Len(t, a.Entries(), 1, "previous listing must survive a failed refresh")
}

// A response for folder X arriving after navigation moved to folder Y is
// discarded rather than shown for the wrong folder.
func TestRefresh_StaleResponseIsDiscarded(t *testing.T) {
	api := &fakeAPI{entries: []proxy.Entry{
		{ID: "d1", Name: "old.txt", MimeType: "text/plain"},
	}}

	current := "X"
	a, err := NewAdapter(api, staticToken("tok"), func() string { return current })
	require.NoError(t, err)

	// Navigation moves on while the request is in flight.
	current = "Y"

	require.NoError(t, a.Refresh(context.Background(), "X"))
	assert.Empty(t, a.Entries())
}

func TestCreateFolder(t *testing.T) {
	api := &fakeAPI{createdID: "new-folder"}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	id, err := a.CreateFolder(context.Background(), "  Projects  ", "root")
	require.NoError(t, err)
	assert.Equal(t, "new-folder", id)
}

func TestCreateFolder_RejectsEmptyName(t *testing.T) {
	a, err := NewAdapter(&fakeAPI{}, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	_, err = a.CreateFolder(context.Background(), "   ", "root")
	assert.Error(t, err)
}

func TestDeleteEntry(t *testing.T) {
	api := &fakeAPI{}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	require.NoError(t, a.DeleteEntry(context.Background(), "d1"))
	assert.Equal(t, "d1", api.deletedWith)

	assert.Error(t, a.DeleteEntry(context.Background(), ""))
}

func TestFolderDisplayName(t *testing.T) {
	api := &fakeAPI{folderName: "My Drive"}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)

	name, err := a.FolderDisplayName(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "My Drive", name)
}

func TestViewerURL(t *testing.T) {
	file := DirectoryEntry{ID: "abc", Kind: KindFile}
	assert.Equal(t, "https://drive.google.com/file/d/abc/view", file.ViewerURL())

	folder := DirectoryEntry{ID: "def", Kind: KindFolder}
	assert.Equal(t, "https://drive.google.com/drive/folders/def", folder.ViewerURL())
}

func TestEntriesReturnsCopy(t *testing.T) {
	api := &fakeAPI{entries: []proxy.Entry{
		{ID: "d1", Name: "notes.txt", MimeType: "text/plain"},
	}}
	a, err := NewAdapter(api, staticToken("tok"), staticFolder("root"))
	require.NoError(t, err)
	require.NoError(t, a.Refresh(context.Background(), "root"))

	entries := a.Entries()
	entries[0].Name = "mutated"

	assert.Equal(t, "notes.txt", a.Entries()[0].Name)
}
