package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medconnect-gh/booking-platform/internal/api/router"
	"github.com/medconnect-gh/booking-platform/internal/appointments"
	"github.com/medconnect-gh/booking-platform/internal/audit"
	appconfig "github.com/medconnect-gh/booking-platform/internal/config"
	"github.com/medconnect-gh/booking-platform/internal/directory"
	"github.com/medconnect-gh/booking-platform/internal/email"
	"github.com/medconnect-gh/booking-platform/internal/hospitals"
	httphandlers "github.com/medconnect-gh/booking-platform/internal/http/handlers"
	"github.com/medconnect-gh/booking-platform/internal/notifications"
	"github.com/medconnect-gh/booking-platform/internal/observability/metrics"
	"github.com/medconnect-gh/booking-platform/internal/patients"
	"github.com/medconnect-gh/booking-platform/internal/sms"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Postgres: pgx pool for the hot booking paths, database/sql for the
	// reference and audit stores.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Metrics registry. The booking counters live alongside the standard
	// process and Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Outbound channels.
	smsSender, smsLabel, smsReason := sms.BuildFailover(sms.SelectionConfig{
		Preference:       cfg.SMSProvider,
		ArkeselAPIKey:    cfg.ArkeselAPIKey,
		ArkeselSenderID:  cfg.ArkeselSenderID,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
		SendTimeout:      cfg.SMSSendTimeout,
	}, logger)
	if smsSender != nil {
		logger.Info("sms channel ready", "providers", smsLabel)
	} else {
		logger.Warn("sms channel disabled", "reason", smsReason)
	}

	emailSender := buildEmailSender(ctx, cfg, logger)
	if emailSender != nil {
		logger.Info("email channel ready", "provider", emailSender.Name())
	} else {
		logger.Warn("email channel disabled")
	}

	logStore := notifications.NewPostgresLogStore(pool)
	var dispatchSMS notifications.SMSDispatcher
	if smsSender != nil {
		dispatchSMS = smsSender
	}
	dispatcher := notifications.NewDispatcher(dispatchSMS, emailSender, logStore, bookingMetrics, logger)

	// Reference stores and the optional Redis read-through cache.
	hospitalStore := hospitals.NewStore(db)
	var hospitalCache *hospitals.CachedStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, hospital cache disabled", "error", err)
		} else {
			hospitalCache = hospitals.NewCachedStore(hospitalStore, redisClient, cfg.HospitalCacheTTL, logger)
		}
	}

	patientRepo := patients.NewRepository(pool)

	var hospitalSource directory.HospitalSource = hospitalStore
	if hospitalCache != nil {
		hospitalSource = hospitalCache
	}
	resolver := directory.NewResolver(patientRepo, hospitalSource, hospitalStore)

	auditService := audit.NewService(db)

	apptRepo := appointments.NewPostgresRepository(pool)
	apptService := appointments.NewService(apptRepo, resolver, dispatcher, auditService, bookingMetrics, logger)

	// HTTP handlers.
	apptHandler := appointments.NewHandler(apptService, logger)
	hospitalHandler := hospitals.NewHandler(hospitalStore, hospitalCache, logger)
	patientHandler := patients.NewHandler(patientRepo, logger)
	statsHandler := httphandlers.NewAdminStatsHandler(apptService, auditService, registry, logger)
	auditHandler := httphandlers.NewAdminAuditHandler(auditService, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		Appointments:       apptHandler,
		Hospitals:          hospitalHandler,
		Patients:           patientHandler,
		AdminStats:         statsHandler,
		AdminAudit:         auditHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthSecret:         cfg.AuthJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight notification sends settle before the process exits.
	apptService.Flush()

	logger.Info("server stopped")
}

// buildEmailSender picks the configured provider. A nil return disables
// the email channel; the dispatcher records every skipped send.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) email.Sender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			return nil
		}
		return email.NewSESSender(sesv2.NewFromConfig(awsCfg), email.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil
		}
		return email.NewSendGridSender(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	default:
		logger.Warn("unknown email provider", "provider", cfg.EmailProvider)
		return nil
	}
}
