// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventpilot/backend/config"
	"github.com/eventpilot/backend/internal/admins"
	"github.com/eventpilot/backend/internal/ai"
	"github.com/eventpilot/backend/internal/analytics"
	"github.com/eventpilot/backend/internal/attendance"
	"github.com/eventpilot/backend/internal/auth"
	"github.com/eventpilot/backend/internal/emaillogs"
	"github.com/eventpilot/backend/internal/gallery"
	"github.com/eventpilot/backend/internal/invites"
	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/notifier"
	"github.com/eventpilot/backend/internal/registrations"
	"github.com/eventpilot/backend/internal/sessions"
	"github.com/eventpilot/backend/internal/users"
	"github.com/eventpilot/backend/pkg/cache"
	"github.com/eventpilot/backend/pkg/database"
	"github.com/eventpilot/backend/pkg/redis"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()
	responseCache := cache.New(rdb.Client, logger)

	var s3Client *storage.S3
	if cfg.AWS.GalleryBucket != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			GalleryBucket:        cfg.AWS.GalleryBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("gallery storage disabled", zap.Error(err))
		}
	} else {
		logger.Info("gallery storage disabled (no bucket configured)")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Email
	var sender notifier.Sender
	if cfg.Email.SMTPHost != "" {
		sender, err = notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPass,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		})
		if err != nil {
			logger.Fatal("smtp", zap.Error(err))
		}
	} else {
		logger.Warn("smtp not configured; email delivery disabled")
		sender = notifier.DisabledSender{}
	}
	emailLogsRepo := emaillogs.NewRepository(pool)
	mailer := notifier.New(sender, emailLogsRepo, cfg.Email.FromName, cfg.App.BaseURL, logger)

	// AI (degraded when no API key)
	var aiClient ai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		logger.Warn("openai not configured; AI features run degraded")
	}
	generator := ai.NewGenerator(aiClient, time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second, logger)

	// Admin bootstrap
	adminRepo := admins.NewRepository(pool)
	if cfg.Admin.Password != "" {
		if err := adminRepo.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Fatal("admin bootstrap", zap.Error(err))
		}
	} else {
		logger.Warn("ADMIN_PASSWORD not set; skipping admin bootstrap")
	}
	adminHandler := admins.NewHandler(adminRepo, jwtService, logger)

	// Sessions
	sessionRepo := sessions.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionRepo, logger)

	// Registrations
	authRepo := auth.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	inviteRepo := invites.NewRepository(pool)
	registrationService := registrations.NewService(
		sessionRepo, registrationRepo, registrationRepo, inviteRepo, authRepo, mailer, logger)
	registrationHandler := registrations.NewHandler(registrationService, logger)

	// Accounts
	authHandler := auth.NewHandler(authRepo, jwtService, registrationService, generator, mailer, logger)
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, authRepo, generator, logger)

	// Attendance / check-in
	attendanceRepo := attendance.NewRepository(pool)
	attendanceHandler := attendance.NewHandler(attendanceRepo, registrationService, logger)

	// Invites
	inviteHandler := invites.NewHandler(inviteRepo, sessionRepo, mailer, cfg.App.BaseURL, logger)

	// Analytics
	analyticsRepo := analytics.NewRepository(pool)
	analyticsHandler := analytics.NewHandler(analyticsRepo, generator, responseCache, logger)

	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	// Gallery
	galleryRepo := gallery.NewRepository(pool)
	galleryHandler := gallery.NewHandler(galleryRepo, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public
	router.GET("/sessions", sessionHandler.List)
	router.GET("/sessions/upcoming", sessionHandler.Upcoming)
	router.GET("/sessions/:id", sessionHandler.Get)
	router.GET("/sessions/:id/countdown", sessionHandler.Countdown)
	router.GET("/sessions/:id/embed", sessionHandler.Embed)
	router.GET("/sessions/:id/gallery", galleryHandler.List)
	router.POST("/sessions/:id/register", registrationHandler.RegisterGuest)
	router.GET("/registrations/:id/confirmation", registrationHandler.Confirmation)
	router.GET("/invites/:token/validate", inviteHandler.Validate)
	router.GET("/users/:username", userHandler.Profile)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Member API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/me/registrations", userHandler.MyRegistrations)
		api.PUT("/me/profile", userHandler.UpdateProfile)
		api.POST("/auth/change-password", authHandler.ChangePassword)
		api.POST("/sessions/:id/register/me", registrationHandler.RegisterMe)
		api.GET("/sessions/:id/qr", attendanceHandler.MyQR)
		api.POST("/registrations/:id/companions", registrationHandler.AddCompanions)
		api.GET("/registrations/:id/companions", registrationHandler.ListCompanions)
	}

	// Admin API
	router.POST("/admin/login", adminHandler.Login)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/dashboard", analyticsHandler.Dashboard)
		admin.GET("/analytics/:kind", analyticsHandler.Analyze)
		admin.POST("/search", analyticsHandler.Search)

		admin.POST("/sessions", sessionHandler.Create)
		admin.GET("/sessions/:id", sessionHandler.GetAdmin)
		admin.PATCH("/sessions/:id", sessionHandler.Update)
		admin.DELETE("/sessions/:id", sessionHandler.Delete)

		admin.GET("/sessions/:id/registrations", registrationHandler.ListBySession)
		admin.POST("/registrations/:id/approve", registrationHandler.Approve)
		admin.POST("/sessions/:id/approve-all", registrationHandler.ApproveAll)
		admin.POST("/companions/:id/promote", registrationHandler.PromoteCompanion)

		admin.POST("/sessions/:id/checkin/:userID", attendanceHandler.Mark)
		admin.POST("/checkin/qr", attendanceHandler.CheckInQR)
		admin.GET("/sessions/:id/attendance", attendanceHandler.ListBySession)

		admin.POST("/sessions/:id/invites", inviteHandler.Send)
		admin.POST("/sessions/:id/invites/whatsapp", inviteHandler.SendWhatsApp)
		admin.GET("/sessions/:id/invites", inviteHandler.List)
		admin.POST("/invites/:id/resend", inviteHandler.Resend)

		admin.GET("/sessions/:id/emails", emailLogsHandler.ListBySession)
		admin.POST("/sessions/:id/gallery", galleryHandler.Upload)
		admin.DELETE("/gallery/:id", galleryHandler.Delete)

		admin.GET("/export/users", userHandler.ExportCSV)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
