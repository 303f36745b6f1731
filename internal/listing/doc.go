// Package listing converts raw directory entries from the backend proxy
// into the view model shown to the user: folder/file classification from
// the provider's mime-type sentinel, icon selection, and viewer URLs.
//
// The adapter holds the last accepted listing and replaces it wholesale
// on each refresh; failed or stale refreshes never clear it.
package listing
