package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/logging"
)

// File describes one locally-staged file to upload.
type File struct {
	// LocalHandle identifies the staged content at the backend proxy.
	LocalHandle string

	// Name is the target file name in the destination folder.
	Name string

	// MimeType is the content type reported to the provider.
	MimeType string
}

// Notifier receives user-facing upload notifications. Each file that
// completes emits one success notification; a failing batch emits exactly
// one failure notification.
type Notifier interface {
	UploadSucceeded(fileName string)
	BatchFailed(message string)
}

// API is the subset of backend-proxy operations the orchestrator needs.
type API interface {
	FetchLocalFileContent(ctx context.Context, localFileHandle string) ([]byte, error)
	InitiateResumableUpload(ctx context.Context, accessToken, fileName, mimeType, parentFolderID string) (string, error)
	PushUploadContent(ctx context.Context, uploadSessionURL string, content []byte) error
}

// TokenFunc returns the current access token, refreshing it first when
// needed. Supplied by the session manager.
type TokenFunc func(ctx context.Context) (string, error)

// BatchError reports the file at which an upload batch stopped. Files
// after it were never attempted; files before it were already pushed and
// are not rolled back.
type BatchError struct {
	BatchID  string
	FileName string
	Index    int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload batch %s failed at %q (file %d): %v", e.BatchID, e.FileName, e.Index+1, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the orchestrator's metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// Orchestrator sequences upload batches through the two-phase resumable
// protocol: initiate an upload session, then push the content to the
// session URL.
//
// Files are processed one at a time in the order supplied, never
// concurrently. Sequential processing keeps a rate-limited per-user
// upload quota intact and makes failure attribution unambiguous: the
// first failing file stops the batch, and later files are untouched.
type Orchestrator struct {
	api      API
	token    TokenFunc
	notifier Notifier
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewOrchestrator creates an upload orchestrator.
func NewOrchestrator(api API, token TokenFunc, notifier Notifier, opts ...Option) (*Orchestrator, error) {
	if api == nil {
		return nil, fmt.Errorf("proxy API is required")
	}
	if token == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	o := &Orchestrator{
		api:      api,
		token:    token,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// UploadBatch uploads the given files into targetFolderID, strictly in
// order. The first failure stops the batch: completed files stay
// uploaded, the failing and all following files are reported through a
// single batch-failure notification, and a BatchError is returned.
// Cancelling ctx between files aborts the batch the same way.
//
// The caller refreshes the folder listing exactly once after the batch
// concludes, success or not.
func (o *Orchestrator) UploadBatch(ctx context.Context, files []File, targetFolderID string) error {
	if len(files) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	start := time.Now()

	o.logger.Info("upload batch started",
		logging.BatchID(batchID),
		logging.FolderID(targetFolderID),
		slog.Int("files", len(files)))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, batchID, file, i, start, err)
		}

		if err := o.uploadOne(ctx, file, targetFolderID); err != nil {
			return o.fail(ctx, batchID, file, i, start, err)
		}

		o.metrics.RecordUploadFile(ctx, "success")
		o.notifier.UploadSucceeded(file.Name)
		o.logger.Info("file uploaded",
			logging.BatchID(batchID), logging.FileName(file.Name))
	}

	o.metrics.RecordUploadBatch(ctx, "success", time.Since(start))
	o.logger.Info("upload batch completed",
		logging.BatchID(batchID), logging.Duration(time.Since(start)))
	return nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, file File, targetFolderID string) error {
	content, err := o.api.FetchLocalFileContent(ctx, file.LocalHandle)
	if err != nil {
		return fmt.Errorf("reading content of %q: %w", file.Name, err)
	}

	accessToken, err := o.token(ctx)
	if err != nil {
		return fmt.Errorf("uploading %q: %w", file.Name, err)
	}

	sessionURL, err := o.api.InitiateResumableUpload(ctx, accessToken, file.Name, file.MimeType, targetFolderID)
	if err != nil {
		return fmt.Errorf("initiating upload of %q: %w", file.Name, err)
	}

	if err := o.api.PushUploadContent(ctx, sessionURL, content); err != nil {
		return fmt.Errorf("pushing content of %q: %w", file.Name, err)
	}

	return nil
}

func (o *Orchestrator) fail(ctx context.Context, batchID string, file File, index int, start time.Time, err error) error {
	batchErr := &BatchError{
		BatchID:  batchID,
		FileName: file.Name,
		Index:    index,
		Err:      err,
	}

	o.metrics.RecordUploadFile(ctx, "failure")
	o.metrics.RecordUploadBatch(ctx, "failure", time.Since(start))
	o.notifier.BatchFailed(batchErr.Error())
	o.logger.Error("upload batch failed",
		logging.BatchID(batchID),
		logging.FileName(file.Name),
		logging.Err(err))

	return batchErr
}
