package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tourdesk/tourdesk/internal/jobs"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// AuditJob writes queued audit entries with a synchronous auditor.
type AuditJob struct {
	Auditor shared.Auditor
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle persists one audit entry.
func (j *AuditJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskTypeRecordAudit)
	defer func() { err = tracker.End(err) }()

	var log shared.AuditLog
	if err := json.Unmarshal(t.Payload(), &log); err != nil || log.Action == "" {
		return fmt.Errorf("audit: bad payload: %w", asynq.SkipRetry)
	}
	if err := j.Auditor.Record(ctx, log); err != nil {
		if j.Logger != nil {
			j.Logger.ErrorContext(ctx, "record audit", slog.String("entity", log.Entity), slog.Any("error", err))
		}
		return err
	}
	return nil
}
