package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/events"
	"github.com/yourusername/verification-api/internal/handler"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/internal/notify"
	pgRepo "github.com/yourusername/verification-api/internal/repository/postgres"
	"github.com/yourusername/verification-api/internal/service"
	"github.com/yourusername/verification-api/internal/validation"
	"github.com/yourusername/verification-api/pkg/auth"
	"github.com/yourusername/verification-api/pkg/database"
	"github.com/yourusername/verification-api/pkg/logger"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init("verification-api", cfg.Log.Level, cfg.Log.Format)
	logger.Log.Infof("Configuration loaded from %s", configPath)

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		logger.Log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, closeBus := newEventBus(cfg.Redis)
	defer closeBus()

	verificationRepo := pgRepo.NewVerificationRepo(db)
	purposeRepo := pgRepo.NewVerificationPurposeRepo(db)
	outboxRepo := pgRepo.NewOutboxRepo(db)
	transactor := pgRepo.NewTransactor(db)
	validator := validation.New()

	emailNotifier, smsNotifier, err := newNotifiers(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize notifiers: %v", err)
	}
	notificationService, err := service.NewNotificationService(emailNotifier, smsNotifier)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize NotificationService: %v", err)
	}

	emitter := events.NewEmitter(bus, outboxRepo, cfg.Events.Channel)
	relay := events.NewRelay(emitter, outboxRepo, cfg.Events.RelayInterval(), cfg.Events.RelayBatchSize)
	go relay.Run(ctx)

	verificationService, err := service.NewVerificationService(
		verificationRepo,
		transactor,
		validator,
		notificationService,
		emitter,
		service.VerificationOptions{
			CodeTTL:          cfg.Verification.CodeTTL(),
			EnforceUserScope: cfg.Verification.EnforceUserScope,
		},
	)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize VerificationService: %v", err)
	}

	purposeService, err := service.NewVerificationPurposeService(purposeRepo, validator)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize VerificationPurposeService: %v", err)
	}
	seeds, err := purposeSeeds(cfg.Purposes)
	if err != nil {
		logger.Log.Fatalf("Invalid purpose seed: %v", err)
	}
	if err := purposeService.SeedDefaults(ctx, seeds); err != nil {
		logger.Log.Fatalf("Failed to seed verification purposes: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize JWTService: %v", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if gin.Mode() == gin.ReleaseMode {
		if err := router.SetTrustedProxies(nil); err != nil {
			logger.Log.Warnf("Failed to set trusted proxies: %v", err)
		}
	}

	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	handler.NewVerificationHandler(verificationService).RegisterRoutes(api, authMiddleware.RequireAdmin())
	handler.NewVerificationPurposeHandler(purposeService).RegisterRoutes(api, authMiddleware.RequireAdmin())

	wsHandler := handler.NewWSHandler(bus, cfg.Events.Channel, cfg.Server.AllowedOrigins)
	router.GET("/ws/verifications", authMiddleware.RequireAdmin(), wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Log.Info("Server exited properly")
}

// newEventBus connects the Redis pub/sub when Redis is configured and falls back to a no-op bus.
// Completion facts still land in the outbox either way.
func newEventBus(cfg config.RedisConfig) (events.PubSub, func()) {
	if !database.RedisConfigured(cfg) {
		logger.Log.Warn("Redis is not configured, completion events will only be stored in the outbox")
		return &events.NoOpPubSub{}, func() {}
	}

	client, err := database.NewUniversalRedisClient(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to Redis: %v", err)
	}
	bus, err := events.NewRedisPubSub(client)
	if err != nil {
		_ = client.Close()
		logger.Log.Fatalf("Failed to initialize Redis pub/sub: %v", err)
	}

	return bus, func() {
		if err := bus.Close(); err != nil {
			logger.Log.Errorf("Error closing pub/sub: %v", err)
		}
		if err := client.Close(); err != nil {
			logger.Log.Errorf("Error closing Redis client: %v", err)
		}
	}
}

func newNotifiers(cfg *config.Config) (email notify.Notifier, sms notify.Notifier, err error) {
	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Email.Provider {
	case "resend":
		email, err = notify.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From, renderer)
	case "smtp":
		email, err = notify.NewSMTPNotifier(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.From, renderer)
	default:
		email = notify.NewLogNotifier("email")
	}
	if err != nil {
		return nil, nil, err
	}

	switch cfg.SMS.Provider {
	case "twilio":
		sms, err = notify.NewTwilioNotifier(cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioFromPhone, renderer)
	default:
		sms = notify.NewLogNotifier("sms")
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Infof("Notifiers: email=%s sms=%s", cfg.Email.Provider, cfg.SMS.Provider)
	return email, sms, nil
}

func purposeSeeds(purposes []config.PurposeSeed) ([]service.SeedPurpose, error) {
	seeds := make([]service.SeedPurpose, 0, len(purposes))
	for _, p := range purposes {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("purpose %s: invalid id %q: %w", p.Code, p.ID, err)
		}
		seeds = append(seeds, service.SeedPurpose{
			ID: id,
			Request: service.CreateVerificationPurposeRequest{
				Code:        p.Code,
				Name:        p.Name,
				Description: p.Description,
			},
		})
	}
	return seeds, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.WithFields(map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}
