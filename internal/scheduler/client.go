package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"businesson_backend/internal/channel"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Config is the slice of application config the scheduler needs.
type Config interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetFollowUpDelay() time.Duration
}

// Client enqueues deferred tasks. It implements the messaging module's
// follow-up scheduling contract.
type Client struct {
	client *asynq.Client
	queue  string
	delay  time.Duration
	log    *logger.Logger
}

// RedisOpt translates a redis URL into asynq connection options.
func RedisOpt(cfg Config) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("invalid redis url: %w", err)
	}

	opt := asynq.RedisClientOpt{
		Addr:     parsed.Addr,
		Username: parsed.Username,
		Password: parsed.Password,
		DB:       parsed.DB,
	}
	if parsed.TLSConfig != nil {
		opt.TLSConfig = parsed.TLSConfig
		if cfg.GetRedisTLSInsecure() {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return opt, nil
}

// NewClient creates a task queue client
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		delay:  cfg.GetFollowUpDelay(),
		log:    log,
	}, nil
}

// ScheduleFollowUp enqueues an unanswered-thread check to run after the
// configured delay. The message ID keys idempotency: the worker only acts
// if that message is still the last one in the thread.
func (c *Client) ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, ch channel.Channel, messageID uuid.UUID) error {
	task, err := NewFollowUpTask(FollowUpPayload{
		LeadID:    leadID,
		Channel:   ch,
		MessageID: messageID,
	})
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessIn(c.delay),
		// One check per outbound message; re-enqueues collapse.
		asynq.TaskID(fmt.Sprintf("%s:%s", TypeFollowUpCheck, messageID)),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			c.log.Debug("follow-up already scheduled", "message_id", messageID)
			return nil
		}
		return fmt.Errorf("failed to enqueue follow-up: %w", err)
	}

	c.log.Info("follow-up scheduled",
		"lead_id", leadID,
		"channel", ch,
		"task_id", info.ID,
		"process_at", info.NextProcessAt,
	)
	return nil
}

// Close releases the underlying redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
