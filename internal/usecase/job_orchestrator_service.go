package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ottersden/otterball/internal/platform/logging"
)

// JobQueue hands a job off to the external dispatcher. Implementations must
// deduplicate on the deduplication id.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, string, any, time.Duration, string) error {
	return nil
}

// NoopJobQueue returns a queue that drops everything. Used when no external
// dispatcher is configured and the in-process ticker drives the runs.
func NoopJobQueue() JobQueue {
	return noopJobQueue{}
}

const (
	JobPathSyncSchedule = "/v1/internal/jobs/sync-schedule"
	JobPathReconcile    = "/v1/internal/jobs/reconcile"
	JobPathCreatePolls  = "/v1/internal/jobs/create-polls"
	JobPathOpenPolls    = "/v1/internal/jobs/open-polls"
	JobPathClosePolls   = "/v1/internal/jobs/close-polls"
	JobPathSyncWagers   = "/v1/internal/jobs/sync-wagers"
	JobPathPostResults  = "/v1/internal/jobs/post-results"
)

type recurringJob struct {
	path   string
	bucket time.Duration
}

// JobOrchestratorService schedules the recurring workflow runs. Dedup ids
// are bucketed on the job's cadence so a crashed dispatcher cannot double
// enqueue the same run.
type JobOrchestratorService struct {
	queue  JobQueue
	jobs   []recurringJob
	logger *logging.Logger
	now    func() time.Time
}

func NewJobOrchestratorService(queue JobQueue, logger *logging.Logger) *JobOrchestratorService {
	if queue == nil {
		queue = noopJobQueue{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobOrchestratorService{
		queue: queue,
		jobs: []recurringJob{
			{path: JobPathSyncSchedule, bucket: 6 * time.Hour},
			{path: JobPathReconcile, bucket: time.Hour},
			{path: JobPathCreatePolls, bucket: time.Hour},
			{path: JobPathOpenPolls, bucket: 15 * time.Minute},
			{path: JobPathClosePolls, bucket: 5 * time.Minute},
			{path: JobPathSyncWagers, bucket: 5 * time.Minute},
			{path: JobPathPostResults, bucket: 15 * time.Minute},
		},
		logger: logger,
		now:    time.Now,
	}
}

// DispatchRecurring enqueues one run per job for the current time bucket.
func (s *JobOrchestratorService) DispatchRecurring(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService.DispatchRecurring")
	defer span.End()

	report := newBatchReport("jobs.dispatch_recurring")
	now := s.now().UTC()

	for _, job := range s.jobs {
		payload := map[string]string{"run_id": uuid.NewString()}
		dedupID := dedupKey(job.path, now, job.bucket)
		if err := s.queue.Enqueue(ctx, job.path, payload, 0, dedupID); err != nil {
			report.add(itemFailed(job.path, fmt.Errorf("enqueue: %w", err)))
			s.logger.ErrorContext(ctx, "enqueue recurring job failed", "path", job.path, "error", err)
			continue
		}
		report.add(itemOK(job.path))
	}

	s.logger.InfoContext(ctx, "recurring jobs dispatched", report.LogFields()...)
	return report, nil
}

func dedupKey(path string, now time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	return fmt.Sprintf("%s:%s", path, now.Truncate(bucket).Format("20060102T150405Z"))
}
