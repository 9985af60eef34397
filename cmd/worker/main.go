// The worker binary consumes queued tasks, currently the deferred
// follow-up checks for unanswered conversation threads.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"businesson_backend/internal/ai"
	"businesson_backend/internal/aisettings"
	"businesson_backend/internal/appointments"
	"businesson_backend/internal/dispatch"
	"businesson_backend/internal/email"
	"businesson_backend/internal/events"
	"businesson_backend/internal/leads"
	"businesson_backend/internal/messaging"
	messagingservice "businesson_backend/internal/messaging/service"
	"businesson_backend/internal/scheduler"
	"businesson_backend/internal/telephony"
	"businesson_backend/platform/config"
	"businesson_backend/platform/db"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/joho/godotenv"
)

const outboundEmailSubject = "New message from our team"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	responder, err := ai.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize ai responder", "error", err)
		panic("failed to initialize ai responder: " + err.Error())
	}

	twilioClient := telephony.NewClient(cfg, log)
	emailSender := email.NewSMTPSender(cfg)
	outbound := dispatch.New(dispatch.NewTwilioTextSender(twilioClient), emailSender, outboundEmailSubject, log)

	val := validator.New()

	leadsModule := leads.NewModule(pool, val, eventBus, log)
	aiSettingsModule := aisettings.NewModule(pool, val, eventBus, log)
	appointmentsModule := appointments.NewModule(pool, val, eventBus)

	// The worker sends nudges but never schedules new follow-ups, so the
	// scheduler slot stays nil.
	messagingModule := messaging.NewModule(
		pool,
		val,
		leadsModule.Service,
		appointmentsModule.Service,
		aiSettingsModule.Service,
		responder,
		outbound,
		nil,
		messagingservice.NewOfficeHours(cfg),
		eventBus,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, messagingModule.Service, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
		eventBus.Wait()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}
}
