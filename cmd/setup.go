package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teemow/driveway/internal/config"
	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/logging"
	"github.com/teemow/driveway/internal/proxy"
	"github.com/teemow/driveway/internal/session"
)

// runtime bundles the collaborators every subcommand needs: configuration,
// logger, instrumentation, the proxy client, and the session manager.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	client   *proxy.Client
	store    session.CodeStore
	manager  *session.Manager
}

// newRuntime loads configuration and builds the shared collaborators.
// overrides, when non-nil, is applied to the loaded configuration before
// anything is constructed from it; flags take precedence this way.
func newRuntime(ctx context.Context, overrides func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.NewLogger(cfg.Environment, cfg.Debug)
	slog.SetDefault(logger)

	instrCfg := instrumentation.DefaultConfig()
	instrCfg.Enabled = cfg.MetricsEnabled
	instrCfg.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing instrumentation: %w", err)
	}

	client, err := proxy.NewClient(cfg.ProxyURL,
		proxy.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		proxy.WithLogger(logger),
		proxy.WithMetrics(provider.Metrics()))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	var store session.CodeStore
	if cfg.StateDir != "" {
		store, err = session.OpenBoltCodeStore(cfg.StateDir)
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
	} else {
		store = session.NewMemoryCodeStore()
	}

	manager, err := session.NewManager(client, store,
		session.WithLogger(logger),
		session.WithMetrics(provider.Metrics()))
	if err != nil {
		_ = store.Close()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		client:   client,
		store:    store,
		manager:  manager,
	}, nil
}

func (r *runtime) Close(ctx context.Context) {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing code store", logging.Err(err))
	}
	if err := r.provider.Shutdown(ctx); err != nil {
		r.logger.Warn("shutting down instrumentation", logging.Err(err))
	}
}
