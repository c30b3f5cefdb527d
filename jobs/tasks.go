package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tourdesk/tourdesk/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRecordAudit persists one audit trail entry.
	TaskTypeRecordAudit = "audit:record"
	// TaskTypeIdempotencyCleanup purges expired idempotency keys.
	TaskTypeIdempotencyCleanup = "idempotency:cleanup"
)

// IdempotencyCleanupPayload configures the retention window of the cleanup task.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(mail shared.Mail) (*asynq.Task, error) {
	data, err := json.Marshal(mail)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode mail: %w", err)
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewRecordAuditTask wraps an audit entry.
func NewRecordAuditTask(log shared.AuditLog) (*asynq.Task, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode audit log: %w", err)
	}
	return asynq.NewTask(TaskTypeRecordAudit, data, asynq.MaxRetry(10)), nil
}

// NewIdempotencyCleanupTask builds the periodic cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}
