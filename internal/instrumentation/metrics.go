package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency
const (
	attrOperation = "operation"
	attrStatus    = "status"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder, as is a nil pointer, so callers
// never need to guard recording calls.
type Metrics struct {
	// Backend-proxy metrics
	proxyOperationsTotal   metric.Int64Counter
	proxyOperationDuration metric.Float64Histogram

	// Auth lifecycle metrics
	authAttemptsTotal   metric.Int64Counter
	codeRedemptionTotal metric.Int64Counter
	tokenRefreshTotal   metric.Int64Counter

	// Listing metrics
	listingRefreshesTotal metric.Int64Counter
	staleListingsTotal    metric.Int64Counter

	// Upload metrics
	uploadFilesTotal    metric.Int64Counter
	uploadBatchesTotal  metric.Int64Counter
	uploadBatchDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.proxyOperationsTotal, err = meter.Int64Counter(
		"proxy_operations_total",
		metric.WithDescription("Total number of backend-proxy operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy_operations_total counter: %w", err)
	}

	m.proxyOperationDuration, err = meter.Float64Histogram(
		"proxy_operation_duration_seconds",
		metric.WithDescription("Backend-proxy operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy_operation_duration_seconds histogram: %w", err)
	}

	m.authAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Total number of session authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_attempts_total counter: %w", err)
	}

	m.codeRedemptionTotal, err = meter.Int64Counter(
		"code_redemption_total",
		metric.WithDescription("Total number of authorization-code redemption attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code_redemption_total counter: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"token_refresh_total",
		metric.WithDescription("Total number of access-token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_refresh_total counter: %w", err)
	}

	m.listingRefreshesTotal, err = meter.Int64Counter(
		"listing_refreshes_total",
		metric.WithDescription("Total number of folder listing refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing_refreshes_total counter: %w", err)
	}

	m.staleListingsTotal, err = meter.Int64Counter(
		"stale_listings_discarded_total",
		metric.WithDescription("Listing responses discarded because navigation moved on"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stale_listings_discarded_total counter: %w", err)
	}

	m.uploadFilesTotal, err = meter.Int64Counter(
		"upload_files_total",
		metric.WithDescription("Total number of individual file uploads"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_files_total counter: %w", err)
	}

	m.uploadBatchesTotal, err = meter.Int64Counter(
		"upload_batches_total",
		metric.WithDescription("Total number of upload batches"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_batches_total counter: %w", err)
	}

	m.uploadBatchDuration, err = meter.Float64Histogram(
		"upload_batch_duration_seconds",
		metric.WithDescription("Upload batch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 300.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_batch_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordProxyOperation records a backend-proxy operation with its status
// ("success" or "error") and duration.
func (m *Metrics) RecordProxyOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.proxyOperationsTotal == nil || m.proxyOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.proxyOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.proxyOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAuthAttempt records a session authentication attempt.
// Result should be one of: "success", "failure", "unauthenticated"
func (m *Metrics) RecordAuthAttempt(ctx context.Context, result string) {
	if m == nil || m.authAttemptsTotal == nil {
		return
	}

	m.authAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordCodeRedemption records an authorization-code redemption attempt.
// Result should be one of: "success", "failure", "already_consumed"
func (m *Metrics) RecordCodeRedemption(ctx context.Context, result string) {
	if m == nil || m.codeRedemptionTotal == nil {
		return
	}

	m.codeRedemptionTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordTokenRefresh records an access-token refresh attempt.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}

	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordListingRefresh records a folder listing refresh with its status.
func (m *Metrics) RecordListingRefresh(ctx context.Context, status string) {
	if m == nil || m.listingRefreshesTotal == nil {
		return
	}

	m.listingRefreshesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordStaleListingDiscard records a listing response discarded because
// the navigation state moved to a different folder before it arrived.
func (m *Metrics) RecordStaleListingDiscard(ctx context.Context) {
	if m == nil || m.staleListingsTotal == nil {
		return
	}

	m.staleListingsTotal.Add(ctx, 1)
}

// RecordUploadFile records a single file upload with its status.
func (m *Metrics) RecordUploadFile(ctx context.Context, status string) {
	if m == nil || m.uploadFilesTotal == nil {
		return
	}

	m.uploadFilesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordUploadBatch records an upload batch with its status and duration.
func (m *Metrics) RecordUploadBatch(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.uploadBatchesTotal == nil || m.uploadBatchDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.uploadBatchesTotal.Add(ctx, 1, attrs)
	m.uploadBatchDuration.Record(ctx, duration.Seconds(), attrs)
}
