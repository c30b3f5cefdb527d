package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tourdesk/tourdesk/internal/jobs"
)

// DefaultIdempotencyRetention is how long payment idempotency keys are kept.
const DefaultIdempotencyRetention = 72 * time.Hour

// KeyPurger removes idempotency keys older than a cutoff.
type KeyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob processes TaskTypeIdempotencyCleanup tasks.
type IdempotencyCleanupJob struct {
	Store   KeyPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle purges expired keys.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskTypeIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	payload := IdempotencyCleanupPayload{OlderThan: DefaultIdempotencyRetention}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.OlderThan <= 0 {
		payload.OlderThan = DefaultIdempotencyRetention
	}

	purged, err := j.Store.Cleanup(ctx, payload.OlderThan)
	if err != nil {
		return err
	}
	j.Metrics.AddPurged(purged)
	if j.Logger != nil {
		j.Logger.InfoContext(ctx, "purged idempotency keys", slog.Int64("count", purged), slog.Duration("older_than", payload.OlderThan))
	}
	return nil
}
