package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/api"
	"github.com/stacklok/nodesync/internal/app/storage"
	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/httpclient"
	"github.com/stacklok/nodesync/internal/profile"
	"github.com/stacklok/nodesync/internal/queue"
	"github.com/stacklok/nodesync/internal/service"
	dbstore "github.com/stacklok/nodesync/internal/storage/db"
	nodesync "github.com/stacklok/nodesync/internal/sync"
	"github.com/stacklok/nodesync/internal/telemetry"
	"github.com/stacklok/nodesync/internal/versions"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// Worker goroutines per consumed batch.
	defaultConcurrency = 10
)

// AppOption is a function that configures the app builder
//
//nolint:revive // This name is fine
type AppOption func(*appConfig) error

// appConfig collects everything NewApp needs. Component overrides are
// primarily used by tests.
type appConfig struct {
	config *config.Config

	storageFactory storage.Factory
	gateway        profile.Gateway
	queueClient    *queue.Client

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	concurrency int

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...AppOption) (*appConfig, error) {
	cfg := &appConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		concurrency:    defaultConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// NewApp wires storage, the sync passes, the optional queue consumer and the
// HTTP API into an App.
func NewApp(ctx context.Context, opts ...AppOption) (*App, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.storageFactory == nil {
		var factoryOpts []storage.DatabaseFactoryOption
		if cfg.tracerProvider != nil {
			factoryOpts = append(factoryOpts, storage.WithTracer(cfg.tracerProvider.Tracer(dbstore.ServiceTracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Release the factory and queue connection if wiring fails halfway.
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.cleanup()
		}
	}()

	dispatcher, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	consumer, publisher, err := buildQueueComponents(ctx, cfg, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("failed to build queue components: %w", err)
	}

	jobService, err := buildServiceComponents(ctx, cfg, dispatcher, publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, jobService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &App{
		config: cfg.config,
		components: &AppComponents{
			Dispatcher: dispatcher,
			Consumer:   consumer,
			JobService: jobService,
			Storage:    cfg.storageFactory,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: func() {
			cancel()
			cfg.cleanup()
		},
	}, nil
}

func (b *appConfig) cleanup() {
	if b.queueClient != nil {
		if err := b.queueClient.Close(); err != nil {
			slog.Warn("Failed to close queue client", "error", err)
		}
	}
	if b.storageFactory != nil {
		b.storageFactory.Cleanup()
	}
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AppOption {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) AppOption {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
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
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AppOption {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) AppOption {
	return func(cfg *appConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithGateway allows injecting a custom profile gateway (for testing)
func WithGateway(gw profile.Gateway) AppOption {
	return func(cfg *appConfig) error {
		cfg.gateway = gw
		return nil
	}
}

// WithQueueClient allows injecting a queue client instead of dialing the
// configured Redis address.
func WithQueueClient(c *queue.Client) AppOption {
	return func(cfg *appConfig) error {
		cfg.queueClient = c
		return nil
	}
}

// WithConcurrency sets how many jobs of a consumed batch run at once.
func WithConcurrency(n int) AppOption {
	return func(cfg *appConfig) error {
		if n <= 0 {
			return fmt.Errorf("concurrency must be positive, got %d", n)
		}
		cfg.concurrency = n
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) AppOption {
	return func(cfg *appConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for passes,
// storage and HTTP requests.
func WithTracerProvider(tp trace.TracerProvider) AppOption {
	return func(cfg *appConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) AppOption {
	return func(cfg *appConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSyncComponents builds the profile gateway, the orchestrator and the dispatcher.
func buildSyncComponents(ctx context.Context, b *appConfig) (*nodesync.Dispatcher, error) {
	slog.Info("Initializing sync components")

	nodes, err := b.storageFactory.CreateNodeStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create node store: %w", err)
	}
	clusters, err := b.storageFactory.CreateClusterStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster store: %w", err)
	}
	ledger, err := b.storageFactory.CreateJobLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job ledger: %w", err)
	}

	if b.gateway == nil {
		b.gateway = newGateway(b.config.Source)
	}

	orchestratorOpts := []nodesync.Option{nodesync.WithSyncConfig(b.config.Sync)}
	dispatcherOpts := []nodesync.DispatcherOption{nodesync.WithConcurrency(b.concurrency)}

	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		orchestratorOpts = append(orchestratorOpts, nodesync.WithMetrics(syncMetrics))
		dispatcherOpts = append(dispatcherOpts, nodesync.WithDispatcherMetrics(syncMetrics))
		slog.Info("Sync metrics enabled")
	}
	if b.tracerProvider != nil {
		orchestratorOpts = append(orchestratorOpts, nodesync.WithTracer(b.tracerProvider.Tracer(nodesync.TracerName)))
	}

	orchestrator := nodesync.NewOrchestrator(nodes, clusters, ledger, b.gateway, orchestratorOpts...)
	dispatcher := nodesync.NewDispatcher(orchestrator, ledger, dispatcherOpts...)

	slog.Info("Sync components initialized successfully")
	return dispatcher, nil
}

func newGateway(src config.SourceConfig) profile.Gateway {
	userAgent := src.UserAgent
	if userAgent == "" {
		userAgent = versions.UserAgent()
	}

	client := httpclient.NewDefaultClient(src.GetTimeout(),
		httpclient.WithUserAgent(userAgent),
		httpclient.WithRetries(src.GetMaxRetries(), 0),
		httpclient.WithRateLimit(src.RequestsPerSecond),
	)

	var opts []profile.GatewayOption
	if src.MaxPages > 0 {
		opts = append(opts, profile.WithMaxPages(src.MaxPages))
	}
	return profile.NewHTTPGateway(client, opts...)
}

// buildQueueComponents connects to Redis when a queue section is configured.
// Without one, both return values are nil and jobs are dispatched in process.
func buildQueueComponents(
	ctx context.Context,
	b *appConfig,
	dispatcher *nodesync.Dispatcher,
) (*queue.Consumer, *queue.Producer, error) {
	if b.config.Queue == nil && b.queueClient == nil {
		slog.Info("No queue configured, jobs are dispatched in process")
		return nil, nil, nil
	}

	if b.queueClient == nil {
		client, err := queue.NewClient(ctx, b.config.Queue)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to queue: %w", err)
		}
		b.queueClient = client
	}

	consumerOpts := []queue.ConsumerOption{}
	if b.config.Queue != nil {
		consumerOpts = append(consumerOpts, queue.WithConsumerConfig(b.config.Queue))
	}

	consumer := queue.NewConsumer(b.queueClient, dispatcher, consumerOpts...)
	producer := queue.NewProducer(b.queueClient, 0)

	slog.Info("Queue components initialized", "stream", b.queueClient.Stream())
	return consumer, producer, nil
}

// buildServiceComponents builds the job service behind the HTTP API.
//
//nolint:unparam // we prefer having a similar interface
func buildServiceComponents(
	ctx context.Context,
	b *appConfig,
	dispatcher *nodesync.Dispatcher,
	publisher *queue.Producer,
) (service.JobService, error) {
	slog.Info("Initializing service components")

	ledger, err := b.storageFactory.CreateJobLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job ledger: %w", err)
	}
	clusters, err := b.storageFactory.CreateClusterStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster store: %w", err)
	}

	checks := []service.ReadinessCheck{b.storageFactory.Ready}
	opts := []service.JobServiceOption{}
	if publisher != nil {
		opts = append(opts, service.WithPublisher(publisher))
		checks = append(checks, b.queueClient.Ping)
	}
	opts = append(opts, service.WithReadinessChecks(checks...))

	svc := service.New(ledger, clusters, dispatcher, opts...)

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *appConfig,
	svc service.JobService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first to capture every request.
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
