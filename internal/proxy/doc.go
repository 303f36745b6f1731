// Package proxy provides the HTTP client for the backend proxy that fronts
// the cloud-storage provider.
//
// The proxy owns credential persistence, URL signing, and all direct
// provider traffic. This client covers its full surface:
//   - Authorization URL retrieval and one-time code redemption
//   - Stored-credential lookup and access-token refresh
//   - Directory listing, folder creation, and entry deletion
//   - Folder display-name resolution
//   - Two-phase resumable uploads (session initiation + content push)
//   - Fetching locally-staged upload content
//
// Operations that act on the user's Drive take the access token explicitly;
// token lifecycle is owned by the session package, and this client never
// caches or refreshes tokens itself.
//
// Failures are returned as *Error carrying the operation name and the HTTP
// status code when one is available.
package proxy
