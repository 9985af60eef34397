// Package scheduler defers work to an asynq-backed queue, currently the
// follow-up nudge for unanswered conversation threads.
package scheduler

import (
	"encoding/json"
	"fmt"

	"businesson_backend/internal/channel"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeFollowUpCheck is the task type for the deferred unanswered-thread check.
const TypeFollowUpCheck = "followup:check"

// FollowUpPayload identifies the thread and the outbound message whose
// lack of a reply triggers the nudge.
type FollowUpPayload struct {
	LeadID    uuid.UUID       `json:"leadId"`
	Channel   channel.Channel `json:"channel"`
	MessageID uuid.UUID       `json:"messageId"`
}

// NewFollowUpTask builds the asynq task for a follow-up check
func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal follow-up payload: %w", err)
	}
	return asynq.NewTask(TypeFollowUpCheck, data), nil
}
