package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/logging"
)

const (
	// DefaultTimeout bounds each proxy request end to end.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody limits how much of an error response body is read
	// when extracting an error message.
	maxErrorBody = 64 * 1024
)

// Client talks to the backend proxy that fronts the storage provider.
// All provider traffic (token storage, URL signing, Drive operations)
// goes through this proxy; the client never calls the provider directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request-level debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder for proxy operations.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the backend proxy at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("proxy base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid proxy base URL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetAuthorizationURL returns the provider authorization URL the user
// must visit to grant access.
func (c *Client) GetAuthorizationURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, "get_authorization_url", http.MethodGet, "/auth/url", "", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// RedeemAuthorizationCode exchanges a one-time authorization code for a
// token pair stored server-side by the proxy.
func (c *Client) RedeemAuthorizationCode(ctx context.Context, code string) error {
	if code == "" {
		return &Error{Op: "redeem_authorization_code", Err: fmt.Errorf("authorization code is required")}
	}

	body := map[string]string{"code": code}
	return c.do(ctx, "redeem_authorization_code", http.MethodPost, "/auth/callback", "", body, nil)
}

// GetStoredCredentials fetches the token pair the proxy holds for the
// current user. Returns (nil, nil) when no credentials are stored.
func (c *Client) GetStoredCredentials(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, "get_stored_credentials", http.MethodGet, "/auth/credentials", "", nil, &creds)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			// Absent credentials are not an error
			return nil, nil
		}
		return nil, err
	}
	if creds.AccessToken == "" {
		return nil, nil
	}
	return &creds, nil
}

// RefreshAccessToken obtains a new access token from the refresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", &Error{Op: "refresh_access_token", Err: fmt.Errorf("refresh token is required")}
	}

	body := map[string]string{"refreshToken": refreshToken}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, "refresh_access_token", http.MethodPost, "/auth/refresh", "", body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &Error{Op: "refresh_access_token", Err: fmt.Errorf("proxy returned empty access token")}
	}
	return out.AccessToken, nil
}

// ListEntries lists the entries whose parent is parentFolderID.
func (c *Client) ListEntries(ctx context.Context, accessToken, parentFolderID string) ([]Entry, error) {
	if parentFolderID == "" {
		return nil, &Error{Op: "list_entries", Err: fmt.Errorf("parent folder id is required")}
	}

	var out struct {
		Entries []Entry `json:"entries"`
	}
	path := "/drive/entries?parent=" + url.QueryEscape(parentFolderID)
	if err := c.do(ctx, "list_entries", http.MethodGet, path, accessToken, nil, &out); err != nil {
		return nil, err
	}
	// An empty folder is a valid result, not an error
	return out.Entries, nil
}

// CreateFolder creates a folder under parentFolderID and returns its id.
func (c *Client) CreateFolder(ctx context.Context, accessToken, name, parentFolderID string) (string, error) {
	if name == "" {
		return "", &Error{Op: "create_folder", Err: fmt.Errorf("folder name is required")}
	}

	body := map[string]string{"name": name, "parentId": parentFolderID}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "create_folder", http.MethodPost, "/drive/folders", accessToken, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteEntry deletes the entry with the given id.
func (c *Client) DeleteEntry(ctx context.Context, accessToken, entryID string) error {
	if entryID == "" {
		return &Error{Op: "delete_entry", Err: fmt.Errorf("entry id is required")}
	}

	path := "/drive/entries/" + url.PathEscape(entryID)
	return c.do(ctx, "delete_entry", http.MethodDelete, path, accessToken, nil, nil)
}

// GetFolderDisplayName resolves a folder id to its display name.
func (c *Client) GetFolderDisplayName(ctx context.Context, accessToken, folderID string) (string, error) {
	if folderID == "" {
		return "", &Error{Op: "get_folder_display_name", Err: fmt.Errorf("folder id is required")}
	}

	var out struct {
		Name string `json:"name"`
	}
	path := "/drive/folders/" + url.PathEscape(folderID) + "/name"
	if err := c.do(ctx, "get_folder_display_name", http.MethodGet, path, accessToken, nil, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

// InitiateResumableUpload asks the proxy for a signed upload-session URL
// for a new file in parentFolderID.
func (c *Client) InitiateResumableUpload(ctx context.Context, accessToken, fileName, mimeType, parentFolderID string) (string, error) {
	if fileName == "" {
		return "", &Error{Op: "initiate_resumable_upload", Err: fmt.Errorf("file name is required")}
	}

	body := map[string]string{
		"fileName": fileName,
		"mimeType": mimeType,
		"parentId": parentFolderID,
	}
	var out struct {
		UploadURL string `json:"uploadUrl"`
	}
	if err := c.do(ctx, "initiate_resumable_upload", http.MethodPost, "/drive/uploads", accessToken, body, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", &Error{Op: "initiate_resumable_upload", Err: fmt.Errorf("proxy returned empty upload URL")}
	}
	return out.UploadURL, nil
}

// PushUploadContent sends the file content to a session URL obtained from
// InitiateResumableUpload. The URL is already signed; no bearer token is
// attached.
func (c *Client) PushUploadContent(ctx context.Context, uploadSessionURL string, content []byte) error {
	const op = "push_upload_content"
	if uploadSessionURL == "" {
		return &Error{Op: op, Err: fmt.Errorf("upload session URL is required")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadSessionURL, bytes.NewReader(content))
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, op, logging.StatusError, start)
		return &Error{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(ctx, op, logging.StatusError, start)
		return c.errorFromResponse(op, resp)
	}

	c.record(ctx, op, logging.StatusSuccess, start)
	return nil
}

// FetchLocalFileContent retrieves a locally-staged file from the proxy as
// raw bytes. The proxy serves staged uploads base64-encoded.
func (c *Client) FetchLocalFileContent(ctx context.Context, localFileHandle string) ([]byte, error) {
	const op = "fetch_local_file_content"
	if localFileHandle == "" {
		return nil, &Error{Op: op, Err: fmt.Errorf("local file handle is required")}
	}

	var out struct {
		Content string `json:"content"`
	}
	path := "/files/" + url.PathEscape(localFileHandle) + "/content"
	if err := c.do(ctx, op, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(out.Content)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to decode staged content: %w", err)}
	}
	return decoded, nil
}

// do performs a JSON request against the proxy and decodes the response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path, accessToken string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	c.logger.Debug("proxy request",
		logging.Operation(op),
		slog.String("method", method),
		slog.String("path", path),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, op, logging.StatusError, start)
		return &Error{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(ctx, op, logging.StatusError, start)
		return c.errorFromResponse(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.record(ctx, op, logging.StatusError, start)
			return &Error{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	c.record(ctx, op, logging.StatusSuccess, start)
	return nil
}

// errorFromResponse builds an *Error from a non-2xx proxy response. The
// proxy reports failures as {"error": {"message": ...}}; fall back to the
// HTTP status text when the body carries no message.
func (c *Client) errorFromResponse(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = gjson.GetBytes(body, "message").String()
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &Error{
		Op:         op,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s", message),
	}
}

func (c *Client) record(ctx context.Context, op, status string, start time.Time) {
	c.metrics.RecordProxyOperation(ctx, op, status, time.Since(start))
}
