package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"businesson_backend/internal/channel"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// FollowUpHandler performs the deferred unanswered-thread check.
type FollowUpHandler interface {
	HandleFollowUp(ctx context.Context, leadID uuid.UUID, ch channel.Channel, messageID uuid.UUID) error
}

// WorkerConfig is the slice of application config the worker needs.
type WorkerConfig interface {
	Config
	GetAsynqConcurrency() int
}

// Worker consumes queued tasks and dispatches them to domain handlers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates a task queue worker bound to the configured queue
func NewWorker(cfg WorkerConfig, follow FollowUpHandler, log *logger.Logger) (*Worker, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues: map[string]int{
			cfg.GetAsynqQueueName(): 1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * time.Minute
		},
		Logger: asynqLogger{log: log},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeFollowUpCheck, followUpTaskHandler(follow, log))

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run starts processing tasks and blocks until Shutdown is called
func (w *Worker) Run() error {
	w.log.Info("task worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func followUpTaskHandler(follow FollowUpHandler, log *logger.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload FollowUpPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Malformed payloads never succeed on retry.
			return fmt.Errorf("invalid follow-up payload: %v: %w", err, asynq.SkipRetry)
		}

		log.Info("processing follow-up check",
			"lead_id", payload.LeadID,
			"channel", payload.Channel,
			"message_id", payload.MessageID,
		)
		return follow.HandleFollowUp(ctx, payload.LeadID, payload.Channel, payload.MessageID)
	}
}

// asynqLogger adapts the structured logger to asynq's logging interface.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
