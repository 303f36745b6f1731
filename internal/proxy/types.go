package proxy

import (
	"fmt"
	"time"
)

// Entry is a raw directory-entry record as returned by the backend proxy.
// Classification into folders and files happens in the listing package.
type Entry struct {
	// ID is the provider-assigned identifier of the entry
	ID string `json:"id"`

	// Name is the display name of the entry
	Name string `json:"name"`

	// MimeType is the provider MIME type of the entry
	MimeType string `json:"mimeType"`
}

// Credentials is the stored token pair held by the backend proxy on behalf
// of the user. The client only ever keeps a transient in-memory copy.
type Credentials struct {
	// AccessToken is the short-lived bearer credential
	AccessToken string `json:"accessToken"`

	// RefreshToken is the longer-lived renewal credential
	RefreshToken string `json:"refreshToken"`

	// Expiry is when the access token stops being usable
	Expiry time.Time `json:"expiry"`
}

// Error is a typed error returned by proxy operations. It carries the
// operation name and, for HTTP-level failures, the response status code
// so callers can decide whether a retry makes sense.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("proxy %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("proxy %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
