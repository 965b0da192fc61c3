package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/medico/backend/internal/application/catalog"
	checkoutapp "github.com/medico/backend/internal/application/checkout"
	identityapp "github.com/medico/backend/internal/application/identity"
	selectionapp "github.com/medico/backend/internal/application/selection"
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/infrastructure/auth"
	"github.com/medico/backend/internal/infrastructure/cache"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/messaging"
	"github.com/medico/backend/internal/infrastructure/money"
	"github.com/medico/backend/internal/infrastructure/payment"
	"github.com/medico/backend/internal/infrastructure/persistence"
	"github.com/medico/backend/internal/infrastructure/storage"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"github.com/medico/backend/internal/interfaces/http/handler"
	"github.com/medico/backend/internal/interfaces/http/middleware"
	"github.com/medico/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

// stores is the catalog and account storage for the configured catalog source
type stores struct {
	products   catalog.Repository
	categories catalog.CategoryRepository
	accounts   identity.AccountRepository
	db         *persistence.Database
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}

	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogExportEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, logProvider, zapcore.InfoLevel)
		log, err = logger.New(logCfg, logger.WithTee(otelCore))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Medico backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("catalog_source", cfg.Storefront.CatalogSource),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, 0, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	businessMetrics, err := telemetry.NewStorefrontMetrics(meterProvider.Meter("medico/storefront"), log)
	if err != nil {
		log.Fatal("Failed to register storefront metrics", zap.Error(err))
	}

	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}

	// Redis backs the token blacklist and the selection store when enabled
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	var redisPing handler.HealthCheck
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, signed-out tokens are tracked in memory", zap.Error(err))
		} else {
			blacklist = auth.NewRedisTokenBlacklist(redisClient)
			redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
			defer func() {
				if err := redisClient.Close(); err != nil {
					log.Error("Error closing Redis client", zap.Error(err))
				}
			}()
		}
	}

	selectionStore, closeSelections, err := cache.NewSelectionStoreFactory(cfg.Redis, cfg.Storefront.SelectionTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create selection store", zap.Error(err))
	}

	publisher, closePublisher, err := messaging.NewPublisher(cfg.Kafka, log)
	if err != nil {
		log.Fatal("Failed to create order event publisher", zap.Error(err))
	}

	processor, err := payment.NewStripeCheckoutAdapter(&payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		IsTestMode:    cfg.Stripe.IsTestMode,
		Currency:      cfg.Storefront.Currency,
	}, log)
	if err != nil {
		log.Fatal("Failed to configure payment processor", zap.Error(err))
	}

	imageStorage, err := newImageStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to configure image storage", zap.Error(err))
	}

	formatter, err := money.NewFormatter(cfg.Storefront.Currency, language.English)
	if err != nil {
		log.Fatal("Unsupported currency", zap.String("currency", cfg.Storefront.Currency), zap.Error(err))
	}

	// Application services
	productService := catalogapp.NewProductService(st.products, st.categories, imageStorage, log)
	categoryService := catalogapp.NewCategoryService(st.categories)
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(st.accounts, jwtService, blacklist, log)
	authService.SetBusinessMetrics(businessMetrics)
	checkoutService := checkoutapp.NewService(st.products, processor, publisher, checkoutapp.Config{
		Currency:   cfg.Storefront.Currency,
		SuccessURL: cfg.Storefront.SuccessURL(),
		CancelURL:  cfg.Storefront.CancelURL(),
	}, log)
	checkoutService.SetBusinessMetrics(businessMetrics)
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("stripe.webhook_secret is not set, /webhooks/stripe will reject every delivery")
	}
	webhookService := checkoutapp.NewWebhookService(cfg.Stripe.WebhookSecret, publisher, log)
	webhookService.SetBusinessMetrics(businessMetrics)
	selectionService := selectionapp.NewService(selectionStore, st.products, formatter, log)

	if err := businessMetrics.ObserveCatalogSize(productService.Count); err != nil {
		log.Warn("Failed to register catalog size gauge", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, cfg.Storefront.FrontendURL)
	if st.db != nil {
		systemHandler.AddCheck("database", func(context.Context) error { return st.db.Ping() })
	}
	if redisPing != nil {
		systemHandler.AddCheck("redis", redisPing)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Start the request span, then mark 4xx/5xx on it
	// 5. Metrics - Request counts and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
		Logger:        log,
	}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	router.Storefront{
		System:    systemHandler,
		Checkout:  handler.NewCheckoutHandler(checkoutService, !cfg.App.IsProduction()),
		Webhook:   handler.NewWebhookHandler(webhookService),
		Product:   handler.NewProductHandler(productService),
		Category:  handler.NewCategoryHandler(categoryService),
		Auth:      handler.NewAuthHandler(authService),
		Selection: handler.NewSelectionHandler(selectionService),
		Authenticate: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		}),
		AuthLimit: middleware.AuthRateLimit(middleware.NewRateLimiter(10, time.Minute)),
	}.Mount(router.NewRouter(engine, router.WithAPIVersion("v1")))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := closePublisher(); err != nil {
		log.Error("Error flushing order events", zap.Error(err))
	}
	if err := closeSelections(); err != nil {
		log.Error("Error closing selection store", zap.Error(err))
	}
	if st.db != nil {
		if err := st.db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing spans", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing log export", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openStores connects the configured catalog source. The snapshot source
// keeps accounts in memory since there is no database to hold them.
func openStores(cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.Storefront.CatalogSource == config.CatalogSourceSnapshot {
		snapshot, err := persistence.NewSnapshotCatalog(cfg.Storefront.CatalogSnapshot)
		if err != nil {
			return nil, err
		}
		log.Info("Serving catalog from snapshot")
		return &stores{
			products:   snapshot,
			categories: snapshot,
			accounts:   persistence.NewInMemoryAccountRepository(),
		}, nil
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = !cfg.App.IsProduction()
		if err := telemetry.NewDBTracingPlugin(tracingCfg, log).Register(db.DB); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	repo := persistence.NewGormCatalogRepository(db.DB)
	return &stores{
		products:   repo,
		categories: repo,
		accounts:   persistence.NewGormAccountRepository(db.DB),
		db:         db,
	}, nil
}

// newImageStorage returns S3 storage when a bucket is configured. Without one,
// development stores uploads in memory and production refuses uploads.
func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ObjectStorageService, error) {
	if cfg.Storage.Enabled() {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Image bucket check failed, uploads may fail", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}
		return s3Storage, nil
	}
	if cfg.App.IsProduction() {
		log.Warn("No image storage configured, product image uploads are disabled")
		return nil, nil
	}
	log.Info("No image storage configured, keeping uploads in memory")
	return storage.NewStubObjectStorage(), nil
}
