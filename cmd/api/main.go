package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"businesson_backend/internal/ai"
	"businesson_backend/internal/aisettings"
	"businesson_backend/internal/appointments"
	"businesson_backend/internal/calls"
	callsservice "businesson_backend/internal/calls/service"
	"businesson_backend/internal/dashboard"
	"businesson_backend/internal/dispatch"
	"businesson_backend/internal/email"
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/internal/http/router"
	"businesson_backend/internal/leads"
	"businesson_backend/internal/messaging"
	messagingservice "businesson_backend/internal/messaging/service"
	"businesson_backend/internal/notification"
	"businesson_backend/internal/scheduler"
	"businesson_backend/internal/storage"
	"businesson_backend/internal/telephony"
	"businesson_backend/migrations"
	"businesson_backend/platform/config"
	"businesson_backend/platform/db"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const outboundEmailSubject = "New message from our team"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	responder, err := ai.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize ai responder", "error", err)
		panic("failed to initialize ai responder: " + err.Error())
	}

	twilioClient := telephony.NewClient(cfg, log)
	if twilioClient == nil {
		log.Warn("TWILIO_ACCOUNT_SID not configured; calls and texting disabled")
	}

	emailSender := email.NewSMTPSender(cfg)
	if emailSender == nil {
		log.Warn("EMAIL_ENABLED is false; outbound email disabled")
	}

	outbound := dispatch.New(dispatch.NewTwilioTextSender(twilioClient), emailSender, outboundEmailSubject, log)

	followUpScheduler, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	recordingArchive, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize recording archive", "error", err)
		panic("failed to initialize recording archive: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, val, eventBus, log)
	aiSettingsModule := aisettings.NewModule(pool, val, eventBus, log)
	appointmentsModule := appointments.NewModule(pool, val, eventBus)

	messagingModule := messaging.NewModule(
		pool,
		val,
		leadsModule.Service,
		appointmentsModule.Service,
		aiSettingsModule.Service,
		responder,
		outbound,
		followUpScheduler,
		messagingservice.NewOfficeHours(cfg),
		eventBus,
		log,
	)

	// A nil concrete archive must stay a nil interface for the calls module.
	var archive callsservice.Archiver
	if recordingArchive != nil {
		archive = recordingArchive
	}
	callsModule := calls.NewModule(
		pool,
		val,
		leadsModule.Service,
		twilioClient,
		responder,
		aiSettingsModule.Service,
		archive,
		eventBus,
		log,
	)

	dashboardModule := dashboard.NewModule(pool, val, responder, log)
	notificationModule := notification.NewModule(eventBus, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			aiSettingsModule,
			appointmentsModule,
			messagingModule,
			callsModule,
			dashboardModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Let in-flight event handlers drain before the process exits.
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initFollowUpScheduler returns a nil scheduler when redis is not
// configured; the messaging pipeline treats nil as "follow-ups disabled".
func initFollowUpScheduler(cfg *config.Config, log *logger.Logger) (messagingservice.FollowUpScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; conversation follow-ups disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
