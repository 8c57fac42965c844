package app

import (
	"context"
	"sync"
	"time"

	"github.com/ottersden/otterball/internal/platform/logging"
)

// dispatchJob is one recurring run driven by the in-process ticker. A zero
// interval means the job runs on every tick.
type dispatchJob struct {
	name  string
	every time.Duration
	run   func(ctx context.Context) error
}

// localDispatcher drives the workflow jobs when no external queue is
// configured. Jobs run sequentially; poll state transitions depend on the
// preceding pass having finished.
type localDispatcher struct {
	interval time.Duration
	jobs     []dispatchJob
	logger   *logging.Logger

	mu      sync.Mutex
	lastRun map[string]time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func newLocalDispatcher(interval time.Duration, logger *logging.Logger, jobs ...dispatchJob) *localDispatcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &localDispatcher{
		interval: interval,
		jobs:     jobs,
		logger:   logger,
		lastRun:  make(map[string]time.Time, len(jobs)),
	}
}

func (d *localDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.loop(ctx)
}

func (d *localDispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *localDispatcher) loop(ctx context.Context) {
	defer close(d.done)

	d.logger.Info("local job dispatcher started", "interval", d.interval.String(), "jobs", len(d.jobs))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.runDue(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("local job dispatcher stopped")
			return
		case <-ticker.C:
			d.runDue(ctx)
		}
	}
}

func (d *localDispatcher) runDue(ctx context.Context) {
	now := time.Now()
	for _, job := range d.jobs {
		if ctx.Err() != nil {
			return
		}
		if !d.due(job, now) {
			continue
		}
		if err := job.run(ctx); err != nil {
			d.logger.ErrorContext(ctx, "local job run failed", "job_name", job.name, "error", err)
			continue
		}
		d.markRun(job.name, now)
	}
}

func (d *localDispatcher) due(job dispatchJob, now time.Time) bool {
	if job.every <= 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lastRun[job.name]
	return !ok || now.Sub(last) >= job.every
}

func (d *localDispatcher) markRun(name string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastRun[name] = now
}
