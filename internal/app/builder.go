package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/data-sync/internal/api"
	"github.com/stacklok/data-sync/internal/config"
	"github.com/stacklok/data-sync/internal/control"
	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/status"
	pkgsync "github.com/stacklok/data-sync/internal/sync"
	"github.com/stacklok/data-sync/internal/sync/coordinator"
	"github.com/stacklok/data-sync/internal/telemetry"
	"github.com/stacklok/data-sync/internal/transfer"
)

const (
	// LockFileName guards the state directory against a second daemon
	LockFileName = "data-syncd.lock"

	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// DataSyncAppOptions is a function that configures the app builder
type DataSyncAppOptions func(*dataSyncAppConfig) error

// dataSyncAppConfig holds what the builder needs to assemble a DataSyncApp.
// Component overrides exist primarily for testing.
type dataSyncAppConfig struct {
	config *config.Config

	// Optional component overrides
	factsProvider facts.Provider
	transferer    transfer.Transferer
	rulesFs       afero.Fs
	watcher       coordinator.Watcher

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...DataSyncAppOptions) (*dataSyncAppConfig, error) {
	cfg := &dataSyncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetListenAddress()
	}

	return cfg, nil
}

// NewDataSyncApp loads the rules and redundancy facts and wires every
// component. It holds the state directory lock until Stop or Close.
func NewDataSyncApp(
	ctx context.Context,
	opts ...DataSyncAppOptions,
) (*DataSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	lock, err := acquireStateLock(cfg.config.GetStateDir())
	if err != nil {
		return nil, err
	}

	// Ensure the lock is released on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			_ = lock.Unlock()
		}
	}()

	if cfg.factsProvider == nil {
		cfg.factsProvider, err = buildFactsProvider(cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to build facts provider: %w", err)
		}
	}

	ruleList, redundancy, err := loadStartupState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	components, err := buildSyncComponents(cfg, ruleList)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components.Control)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &DataSyncApp{
		config:     cfg.config,
		components: components,
		redundancy: redundancy,
		httpServer: httpServer,
		lock:       lock,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configured one
func WithAddress(addr string) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithFactsProvider allows injecting the redundancy fact source
func WithFactsProvider(p facts.Provider) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.factsProvider = p
		return nil
	}
}

// WithTransferer allows injecting the transfer backend
func WithTransferer(t transfer.Transferer) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.transferer = t
		return nil
	}
}

// WithRulesFs sets the filesystem the rules directory is read from
func WithRulesFs(fsys afero.Fs) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.rulesFs = fsys
		return nil
	}
}

// WithWatcher sets the change detector for immediate rules
func WithWatcher(w coordinator.Watcher) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.watcher = w
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) DataSyncAppOptions {
	return func(cfg *dataSyncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// acquireStateLock takes an exclusive lock in stateDir without blocking
func acquireStateLock(stateDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(stateDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := flock.New(filepath.Join(stateDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock state directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another data-syncd instance holds %s", lock.Path())
	}
	return lock, nil
}

// buildFactsProvider builds the configured redundancy fact source
func buildFactsProvider(cfg *config.Config) (facts.Provider, error) {
	switch source := cfg.Redundancy.GetSource(); source {
	case config.RedundancySourceStatic:
		return facts.NewStatic(cfg.Redundancy.Static.StaticFacts()), nil
	case config.RedundancySourceFile:
		return facts.NewFileProvider(cfg.Redundancy.GetFactsFile()), nil
	default:
		return nil, fmt.Errorf("unsupported redundancy source %q", source)
	}
}

// loadStartupState reads the rules directory and fetches the redundancy
// facts concurrently. Both must finish before the first full sync.
func loadStartupState(
	ctx context.Context,
	cfg *dataSyncAppConfig,
) ([]rules.SyncRule, facts.RedundancyContext, error) {
	var (
		loaded     *rules.LoadResult
		redundancy facts.RedundancyContext
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var storeOpts []rules.StoreOption
		if cfg.rulesFs != nil {
			storeOpts = append(storeOpts, rules.WithFs(cfg.rulesFs))
		}
		var err error
		loaded, err = rules.NewStore(cfg.config.GetRulesDir(), storeOpts...).Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load sync rules: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		redundancy, err = facts.FetchWithRetry(gctx, cfg.factsProvider, cfg.config.Redundancy.GetFetchTimeout())
		if err != nil {
			return fmt.Errorf("failed to fetch redundancy facts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, facts.RedundancyContext{}, err
	}

	slog.Info("Startup state loaded",
		"rules", len(loaded.Rules),
		"skipped_documents", len(loaded.Skipped),
		"role", redundancy.Role,
		"redundancy_enabled", redundancy.RedundancyEnabled,
		"sibling_available", redundancy.SiblingAvailable())

	return loaded.Rules, redundancy, nil
}

// buildTransferer builds the configured transfer backend
func buildTransferer(cfg *config.Config, provider facts.Provider) (transfer.Transferer, error) {
	switch mode := cfg.Transfer.GetMode(); mode {
	case transfer.ModeNative:
		return transfer.NewNative(nil), nil
	case transfer.ModeRsync:
		opts := []transfer.RsyncOption{
			transfer.WithBinary(cfg.Transfer.GetRsyncPath()),
			transfer.WithExtraArgs(cfg.Transfer.ExtraArgs...),
		}
		if cfg.Transfer.Remote {
			opts = append(opts, transfer.WithRemote(func() string {
				return provider.Facts().SiblingTarget()
			}))
		}
		return transfer.NewRsync(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported transfer mode %q", mode)
	}
}

// buildSyncComponents builds the sync manager, coordinator and control service
func buildSyncComponents(b *dataSyncAppConfig, ruleList []rules.SyncRule) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	if b.transferer == nil {
		var err error
		b.transferer, err = buildTransferer(b.config, b.factsProvider)
		if err != nil {
			return nil, err
		}
	}

	var syncMetrics *telemetry.SyncMetrics
	if b.meterProvider != nil {
		var err error
		syncMetrics, err = telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		slog.Info("Sync metrics enabled")
	}

	executor := pkgsync.NewExecutor(b.transferer,
		pkgsync.WithExecutorMetrics(syncMetrics),
		pkgsync.WithExecutorTracerProvider(b.tracerProvider),
	)

	tracker := status.NewTracker()
	records := status.NewFileRecordStore(b.config.GetStateDir())

	manager, err := pkgsync.NewManager(ruleList, b.factsProvider, executor, tracker,
		pkgsync.WithRecordStore(records),
		pkgsync.WithMaxParallel(b.config.Transfer.MaxParallel),
		pkgsync.WithSyncMetrics(syncMetrics),
		pkgsync.WithTracerProvider(b.tracerProvider),
	)
	if err != nil {
		return nil, err
	}

	var coordOpts []coordinator.Option
	if b.watcher != nil {
		coordOpts = append(coordOpts, coordinator.WithWatcher(b.watcher))
	}

	slog.Info("Sync components initialized successfully")
	return &AppComponents{
		Rules:           ruleList,
		Facts:           b.factsProvider,
		Tracker:         tracker,
		SyncManager:     manager,
		SyncCoordinator: coordinator.New(ruleList, b.factsProvider, executor, coordOpts...),
		Control:         control.NewService(manager, tracker, b.factsProvider, control.WithRecordStore(records)),
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *dataSyncAppConfig, svc control.Service) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing wrap everything else so rejected requests are seen too
	var outer []func(http.Handler) http.Handler
	if b.meterProvider != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		outer = append(outer, httpMetrics.Middleware)
		slog.Info("HTTP metrics middleware enabled")
	}
	if b.tracerProvider != nil {
		outer = append(outer, telemetry.TracingMiddleware(b.tracerProvider))
	}
	b.middlewares = append(outer, b.middlewares...)

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
