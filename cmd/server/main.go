package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/inkthread/storefront/docs"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	billingapp "github.com/inkthread/storefront/internal/application/billing"
	campaignapp "github.com/inkthread/storefront/internal/application/campaign"
	catalogapp "github.com/inkthread/storefront/internal/application/catalog"
	customerapp "github.com/inkthread/storefront/internal/application/customer"
	identityapp "github.com/inkthread/storefront/internal/application/identity"
	orderapp "github.com/inkthread/storefront/internal/application/order"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/infrastructure/aigen"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"github.com/inkthread/storefront/internal/infrastructure/billing"
	"github.com/inkthread/storefront/internal/infrastructure/cache"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/infrastructure/event"
	"github.com/inkthread/storefront/internal/infrastructure/logger"
	"github.com/inkthread/storefront/internal/infrastructure/messaging"
	"github.com/inkthread/storefront/internal/infrastructure/persistence"
	"github.com/inkthread/storefront/internal/infrastructure/printing"
	"github.com/inkthread/storefront/internal/infrastructure/scheduler"
	"github.com/inkthread/storefront/internal/infrastructure/storage"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
	"github.com/inkthread/storefront/internal/infrastructure/vectorize"
	"github.com/inkthread/storefront/internal/interfaces/http/handler"
	"github.com/inkthread/storefront/internal/interfaces/http/middleware"
	"github.com/inkthread/storefront/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	catalogCacheTTL = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
	quoteRateLimit  = 60
	generateLimit   = 10
)

//	@title			Inkthread Storefront API
//	@version		1.0
//	@description	Custom apparel storefront: catalog, quotes, artwork, checkout and group order campaigns.

//	@contact.name	Inkthread Support
//	@contact.email	support@inkthread.example

//	@license.name	Proprietary

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger so telemetry setup can report problems
	bootLog, err := newLogger(cfg, nil)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Final logger tees into the OTEL log bridge when enabled
	log := bootLog
	if cfg.Telemetry.LogsEnabled {
		log, err = newLogger(cfg, []zapcore.Core{providers.LogCore(zapcore.InfoLevel)})
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentGorm(db.DB, cfg.Telemetry, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Redis backs token revocation, webhook dedup and the catalog cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.App.IsProduction() {
				log.Fatal("Failed to connect to redis", zap.Error(err))
			}
			log.Warn("Redis unavailable, using in-memory fallbacks", zap.Error(err))
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	// Initialize repositories
	adminRepo := persistence.NewGormAdminUserRepository(db.DB)
	garmentRepo := persistence.NewGormGarmentRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	artworkRepo := persistence.NewGormArtworkFileRepository(db.DB)
	savedArtworkRepo := persistence.NewGormSavedArtworkRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	campaignOrderRepo := persistence.NewGormCampaignOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithRedisClient(redisClient),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	purchaseRecorder := customerapp.NewPurchaseRecorder(customerRepo, log)
	refundRecorder := customerapp.NewRefundRecorder(customerRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(purchaseRecorder, idempotencyStore, log), purchaseRecorder.EventTypes()...)
	eventBus.Subscribe(event.NewIdempotentHandler(refundRecorder, idempotencyStore, log), refundRecorder.EventTypes()...)

	var relay *messaging.KafkaRelay
	if cfg.Kafka.Enabled {
		relay, err = messaging.NewKafkaRelay(cfg.Kafka, eventSerializer, log)
		if err != nil {
			log.Fatal("Failed to create event relay", zap.Error(err))
		}
		eventBus.Subscribe(relay, relay.EventTypes()...)
		relay.Start(ctx)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Metrics
	storeMetrics, err := telemetry.NewStoreMetrics(providers.Meter("storefront"), log)
	if err != nil {
		log.Fatal("Failed to create store metrics", zap.Error(err))
	}
	defer func() {
		_ = storeMetrics.Close()
	}()

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	var revoker auth.TokenRevoker = auth.NewInMemoryTokenRevoker()
	if redisClient != nil {
		revoker = auth.NewRedisTokenRevoker(redisClient)
	}

	// External services
	gateway, err := billing.NewStripeGateway(cfg.Stripe, billing.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to configure payment gateway", zap.Error(err))
	}

	objectStorage, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to configure object storage", zap.Error(err))
	}

	var vectorizer artworkapp.Vectorizer
	vectorizeClient, err := vectorize.NewClient(cfg.Vectorizer, vectorize.WithLogger(log))
	switch {
	case err == nil:
		vectorizer = vectorizeClient
	case errors.Is(err, vectorize.ErrDisabled):
		log.Info("Vectorization disabled")
	default:
		log.Fatal("Failed to configure vectorizer", zap.Error(err))
	}

	generator, err := aigen.NewGenerator(ctx, cfg.AIGen, log)
	if err != nil {
		log.Fatal("Failed to configure image generator", zap.Error(err))
	}

	renderer := printing.New(cfg.Printing, log)
	defer func() {
		_ = renderer.Close()
	}()
	documents, err := printing.NewDocuments(renderer)
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}

	catalogCache := newCatalogCache(ctx, redisClient, log)
	defer func() {
		_ = catalogCache.Close()
	}()

	// Application services
	calculator := pricing.NewQuoteCalculator(pricingapp.RateTableFromConfig(cfg.Pricing))
	quoteService := pricingapp.NewQuoteService(garmentRepo, calculator)

	garmentService := catalogapp.NewGarmentService(garmentRepo, catalogCache, log)
	garmentService.SetEventPublisher(eventBus)

	customerService := customerapp.NewCustomerService(customerRepo, log)

	authService := identityapp.NewAuthService(adminRepo, jwtService, revoker, identityapp.DefaultAuthServiceConfig(), log)

	artworkService := artworkapp.NewArtworkService(artworkRepo, objectStorage, vectorizer, generator, log)
	artworkService.SetPresignExpiration(cfg.Storage.PresignExpiration)
	artworkService.SetEventPublisher(eventBus)
	artworkService.SetMetrics(storeMetrics)
	savedArtworkService := artworkapp.NewSavedArtworkService(savedArtworkRepo, artworkRepo, log)

	orderService := orderapp.NewOrderService(orderRepo, customerRepo, quoteService, artworkService, gateway, log)
	orderService.SetCurrency(cfg.Stripe.Currency)
	orderService.SetRecentArtwork(savedArtworkService)
	orderService.SetDocuments(documents)
	orderService.SetEventPublisher(eventBus)
	orderService.SetMetrics(storeMetrics)

	campaignService := campaignapp.NewCampaignService(
		campaignRepo, campaignOrderRepo, garmentRepo, customerRepo,
		calculator, gateway, jwtService, txScope, log,
	)
	campaignService.SetArtworkValidator(artworkService)
	campaignService.SetRevoker(revoker, cfg.JWT.OrganizerTokenGrace)
	campaignService.SetDocuments(documents)
	campaignService.SetCurrency(cfg.Stripe.Currency)
	campaignService.SetEventPublisher(eventBus)
	campaignService.SetMetrics(storeMetrics)
	storeMetrics.SetActiveCampaignSource(campaignService)

	webhookService := billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceConfig{
		Gateway:   gateway,
		Orders:    orderService,
		Campaigns: campaignService,
		Store:     idempotencyStore,
		Logger:    log,
	})
	webhookService.SetMetrics(storeMetrics)

	// Background workers
	var (
		vectorizePool *scheduler.VectorizePool
		sweeper       *scheduler.CampaignSweeper
	)
	if cfg.Scheduler.Enabled {
		vectorizePool, err = scheduler.NewVectorizePool(scheduler.PoolConfigFrom(cfg.Scheduler), artworkService, log)
		if err != nil {
			log.Fatal("Failed to create vectorize pool", zap.Error(err))
		}
		if err := vectorizePool.Start(ctx); err != nil {
			log.Fatal("Failed to start vectorize pool", zap.Error(err))
		}
		artworkService.SetJobQueue(vectorizePool)
		if n, err := artworkService.ResumePending(ctx); err != nil {
			log.Warn("Failed to resume pending vectorizations", zap.Error(err))
		} else if n > 0 {
			log.Info("Resumed pending vectorizations", zap.Int("count", n))
		}

		sweeper, err = scheduler.NewCampaignSweeper(campaignService, cfg.Scheduler.CampaignSweepCron, cfg.Scheduler.JobTimeout, log)
		if err != nil {
			log.Fatal("Failed to create campaign sweeper", zap.Error(err))
		}
		sweeper.Start(ctx)
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = cfg.Telemetry.Enabled

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.App.IsProduction()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = cfg.Telemetry.ProfilingEnabled

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(tracingCfg))
	engine.Use(middleware.SpanErrorMarker())
	if cfg.Telemetry.MetricsEnabled {
		engine.Use(middleware.HTTPMetrics(providers.Meter("storefront.http")))
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(securityCfg))
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimitWithOverrides(cfg.HTTP.MaxBodySize, map[string]int64{
		"/api/artwork": cfg.HTTP.MaxUploadSize,
	}))
	engine.Use(middleware.Profiling(profilingCfg))

	guards := router.Guards{
		JWT:     middleware.JWTMiddlewareConfig{Validator: jwtService, Revoker: revoker, Logger: log},
		Swagger: cfg.Swagger,
	}
	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		global := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(global))
		guards.LoginLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		guards.QuoteLimiter = middleware.NewRateLimiter(quoteRateLimit, time.Minute)
		guards.GenerateLimiter = middleware.NewRateLimiter(generateLimit, time.Hour)
		limiters = append(limiters, global, guards.LoginLimiter, guards.QuoteLimiter, guards.GenerateLimiter)
	}

	router.Mount(engine, router.Handlers{
		Health:       handler.NewHealthHandler(db, telemetry.ServiceVersion),
		Auth:         handler.NewAuthHandler(authService),
		Garment:      handler.NewGarmentHandler(garmentService),
		Quote:        handler.NewQuoteHandler(quoteService),
		Artwork:      handler.NewArtworkHandler(artworkService),
		SavedArtwork: handler.NewSavedArtworkHandler(savedArtworkService),
		Order:        handler.NewOrderHandler(orderService),
		Campaign:     handler.NewCampaignHandler(campaignService),
		Customer:     handler.NewCustomerHandler(customerService),
		Webhook:      handler.NewStripeWebhookHandler(webhookService),
	}, guards)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for _, l := range limiters {
		l.Stop()
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if vectorizePool != nil {
		if err := vectorizePool.Stop(shutdownCtx); err != nil {
			log.Warn("Vectorize pool did not drain", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if relay != nil {
		if err := relay.Stop(shutdownCtx); err != nil {
			log.Warn("Event relay stop failed", zap.Error(err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newLogger(cfg *config.Config, extra []zapcore.Core) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Extra:      extra,
	})
}

// catalogCache is the listing cache plus its shutdown hook
type catalogCache interface {
	catalogapp.ListingCache
	Close() error
}

type memoryCatalogCache struct {
	*cache.InMemoryCatalogCache
}

func (memoryCatalogCache) Close() error { return nil }

// newCatalogCache layers the in-process cache over redis when available so
// every replica drops its listings on invalidation.
func newCatalogCache(ctx context.Context, client *redis.Client, log *zap.Logger) catalogCache {
	l1 := cache.NewInMemoryCatalogCache(catalogCacheTTL)
	if client == nil {
		return memoryCatalogCache{l1}
	}
	l2 := cache.NewRedisCatalogCache(client, cache.WithCatalogLogger(log))
	tiered := cache.NewTieredCatalogCache(l1, l2, log)
	tiered.StartInvalidationSubscription(ctx)
	return tiered
}
