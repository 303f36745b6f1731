package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false

	provider, err := NewProvider(context.Background(), config)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if provider.Enabled() {
		t.Error("Expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("Expected no-op metrics recorder, got nil")
	}

	// Shutdown of a disabled provider is a no-op
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown of disabled provider failed: %v", err)
	}
}

func TestNewProvider_ExporterNone(t *testing.T) {
	config := Config{
		Enabled:         true,
		ServiceName:     "driveway-test",
		ServiceVersion:  "test",
		MetricsExporter: ExporterNone,
	}

	provider, err := NewProvider(context.Background(), config)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if provider.Enabled() {
		t.Error("Expected provider to be disabled with ExporterNone")
	}
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	config := Config{
		Enabled:         true,
		ServiceName:     "driveway-test",
		ServiceVersion:  "test",
		MetricsExporter: Exporter("graphite"),
	}

	if _, err := NewProvider(context.Background(), config); err == nil {
		t.Error("Expected error for unsupported exporter")
	}
}

func TestMetrics_NoOpRecording(t *testing.T) {
	ctx := context.Background()

	// A zero-value recorder must swallow all recordings without panicking
	m := &Metrics{}
	m.RecordProxyOperation(ctx, "list_entries", "success", time.Second)
	m.RecordAuthAttempt(ctx, "success")
	m.RecordCodeRedemption(ctx, "failure")
	m.RecordTokenRefresh(ctx, "success")
	m.RecordListingRefresh(ctx, "success")
	m.RecordStaleListingDiscard(ctx)
	m.RecordUploadFile(ctx, "success")
	m.RecordUploadBatch(ctx, "error", time.Second)

	// Same guarantee for a nil recorder
	var nilMetrics *Metrics
	nilMetrics.RecordProxyOperation(ctx, "list_entries", "success", time.Second)
	nilMetrics.RecordAuthAttempt(ctx, "success")
	nilMetrics.RecordUploadBatch(ctx, "success", time.Second)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ServiceName != "driveway" {
		t.Errorf("Expected service name driveway, got %s", config.ServiceName)
	}
	if config.Enabled {
		t.Error("Expected instrumentation disabled by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("Expected prometheus exporter by default, got %s", config.MetricsExporter)
	}
}
