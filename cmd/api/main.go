package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/petshop-baronesa/api/internal/di"
	"github.com/petshop-baronesa/api/internal/handlers"
	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/platform/config"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/platform/idempotency"
	"github.com/petshop-baronesa/api/internal/platform/jobs"
	"github.com/petshop-baronesa/api/internal/platform/observability"
	"github.com/petshop-baronesa/api/internal/platform/secrets"
	"github.com/petshop-baronesa/api/internal/platform/storage"
	"github.com/petshop-baronesa/api/internal/repositories"
	firestoreRepo "github.com/petshop-baronesa/api/internal/repositories/firestore"
	"github.com/petshop-baronesa/api/internal/services"
)

const shutdownGrace = 10 * time.Second

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	logger := baseLogger.Named("api")

	if err := run(observability.WithLogger(context.Background(), logger), logger); err != nil {
		logger.Error("api exited", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
	_ = baseLogger.Sync()
}

func run(ctx context.Context, logger *zap.Logger) error {
	startedAt := time.Now().UTC()

	envValues, err := config.EnvironmentValues()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		return fmt.Errorf("secret fetcher: %w", err)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("closing secret fetcher", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := provider.Client(ctx)
	if err != nil {
		return fmt.Errorf("firestore client: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Close(closeCtx); err != nil {
			logger.Warn("closing firestore", zap.Error(err))
		}
	}()

	var (
		pubsubClient *pubsub.Client
		publisher    *jobs.PubSubEventPublisher
	)
	topicID := strings.TrimSpace(cfg.Notifications.TopicID)
	if topicID == "" {
		logger.Info("event publishing disabled; no notifications topic configured")
	} else {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("closing pubsub", zap.Error(err))
			}
		}()
		if publisher, err = jobs.NewPubSubEventPublisher(pubsubClient.Topic(topicID)); err != nil {
			return fmt.Errorf("event publisher: %w", err)
		}
	}

	healthRepo, err := newHealthRepository(firestoreClient, pubsubClient, cfg)
	if err != nil {
		return fmt.Errorf("health repository: %w", err)
	}

	registry, err := firestoreRepo.NewRegistry(provider, healthRepo)
	if err != nil {
		return fmt.Errorf("repositories: %w", err)
	}

	containerOpts := []di.ContainerOption{
		di.WithLogger(logger),
		di.WithBuildInfo(buildInfoFromEnv(envValues, startedAt)),
	}
	if publisher != nil {
		containerOpts = append(containerOpts, di.WithEventPublisher(publisher))
	}
	container, err := di.NewContainer(ctx, cfg, registry, containerOpts...)
	if err != nil {
		return fmt.Errorf("service container: %w", err)
	}
	svc := container.Services

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		return fmt.Errorf("firebase verifier: %w", err)
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	tokenIssuer, err := auth.NewAccessTokenIssuer(cfg.AdminGate.TokenSecret, cfg.AdminGate.TokenTTL, cfg.AdminGate.TokenHeader)
	if err != nil {
		return fmt.Errorf("admin token issuer: %w", err)
	}

	mediaService, err := newMediaService(cfg, svc.Errors)
	if err != nil {
		return fmt.Errorf("media service: %w", err)
	}
	if mediaService == nil {
		logger.Info("media uploads disabled; storage bucket or signer key not configured")
	}

	publicHandlers := handlers.NewPublicHandlers(svc.Catalog, svc.Slides, svc.Tips, svc.Pricing, svc.Bookings)
	meHandlers := handlers.NewMeHandlers(authenticator, svc.Authorization, tokenIssuer)
	cartHandlers := handlers.NewCartHandlers(authenticator, svc.Cart)
	checkoutHandlers := handlers.NewCheckoutHandlers(authenticator, svc.Checkout)
	adminHandlers := handlers.NewAdminHandlers(handlers.AdminHandlersDeps{
		Authenticator: authenticator,
		Authorization: svc.Authorization,
		Tokens:        tokenIssuer,
		Catalog:       svc.Catalog,
		Slides:        svc.Slides,
		Tips:          svc.Tips,
		Pricing:       svc.Pricing,
		Bookings:      svc.Bookings,
		Errors:        svc.Errors,
		Media:         mediaService,
	})

	idempotencyMiddleware := idempotency.Middleware(
		idempotency.NewFirestoreStore(firestoreClient),
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	projectID := traceProjectID(cfg)
	router := handlers.NewRouter(handlers.RouterDeps{
		Health: handlers.NewHealthHandlers(svc.System),
		Middlewares: []func(http.Handler) http.Handler{
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(projectID),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(projectID),
			idempotencyMiddleware,
		},
		Public:   publicHandlers.Routes,
		Me:       meHandlers.Routes,
		Cart:     cartHandlers.Routes,
		Checkout: checkoutHandlers.Routes,
		Admin:    adminHandlers.Routes,
	})

	return serve(logger, &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})
}

// serve runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to shutdownGrace.
func serve(logger *zap.Logger, server *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("petshop baronesa api listening", zap.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-signals:
		logger.Info("shutdown signal received; draining requests", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildInfoFromEnv(env map[string]string, started time.Time) services.BuildInfo {
	info := services.BuildInfo{
		Version:     strings.TrimSpace(env["API_BUILD_VERSION"]),
		Environment: strings.TrimSpace(env["API_ENVIRONMENT"]),
		StartedAt:   started,
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Environment == "" {
		info.Environment = "local"
	}
	return info
}

func newHealthRepository(client *firestore.Client, pubsubClient *pubsub.Client, cfg config.Config) (repositories.HealthRepository, error) {
	var checks []repositories.DependencyCheck

	if client != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				// Listing one collection is the cheapest end-to-end probe.
				if _, err := client.Collections(ctx).Next(); !errors.Is(err, iterator.Done) {
					return err
				}
				return nil
			},
		})
	}

	if pubsubClient != nil {
		topicID := strings.TrimSpace(cfg.Notifications.TopicID)
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				exists, err := pubsubClient.Topic(topicID).Exists(ctx)
				if err == nil && !exists {
					err = fmt.Errorf("topic %s does not exist", topicID)
				}
				return err
			},
		})
	}

	if path := strings.TrimSpace(cfg.Pricing.FallbackFile); path != "" {
		checks = append(checks, repositories.DependencyCheck{
			Name: "pricingFallback",
			Check: func(context.Context) error {
				_, err := os.Stat(path)
				return err
			},
		})
	}

	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks)
}

// newMediaService wires the signed upload URL flow when storage is configured.
// Returns a nil service when the bucket or signer key is absent so the admin
// uploads endpoint answers 503 instead of failing at startup.
func newMediaService(cfg config.Config, errlog services.ErrorLogService) (services.MediaService, error) {
	bucket := strings.TrimSpace(cfg.Storage.MediaBucket)
	keyFile := strings.TrimSpace(cfg.Storage.SignerKeyFile)
	if bucket == "" || keyFile == "" {
		return nil, nil
	}

	signer, err := storage.NewServiceAccountSignerFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("storage signer: %w", err)
	}
	client, err := storage.NewClient(signer)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return services.NewMediaService(services.MediaServiceDeps{
		Signer: client,
		Bucket: bucket,
		Errors: errlog,
	})
}

// traceProjectID picks the project used to format Cloud Trace correlation
// fields, preferring the Firebase project.
func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	get := func(key, fallback string) string {
		if value := strings.TrimSpace(env[key]); value != "" {
			return value
		}
		return fallback
	}

	opts := []secrets.Option{
		secrets.WithEnvironment(strings.ToLower(get("API_ENVIRONMENT", "local"))),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(get("API_SECRET_FALLBACK_FILE", ".secrets.local")),
	}
	if project := get("API_SECRET_DEFAULT_PROJECT_ID", get("API_FIREBASE_PROJECT_ID", "")); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	}
	if credentials := get("API_FIREBASE_CREDENTIALS_FILE", ""); credentials != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentials)))
	}
	return secrets.NewFetcher(ctx, opts...)
}
