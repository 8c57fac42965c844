package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ottersden/otterball/internal/platform/logging"
)

func TestLocalDispatcher_EveryTickJobsRunOnEachPass(t *testing.T) {
	t.Parallel()

	runs := 0
	d := newLocalDispatcher(time.Minute, logging.NewNop(), dispatchJob{
		name:  "sync-wagers",
		every: 0,
		run: func(context.Context) error {
			runs++
			return nil
		},
	})

	d.runDue(context.Background())
	d.runDue(context.Background())

	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
}

func TestLocalDispatcher_IntervalJobsWaitForTheirCadence(t *testing.T) {
	t.Parallel()

	runs := 0
	d := newLocalDispatcher(time.Minute, logging.NewNop(), dispatchJob{
		name:  "sync-schedule",
		every: 6 * time.Hour,
		run: func(context.Context) error {
			runs++
			return nil
		},
	})

	d.runDue(context.Background())
	d.runDue(context.Background())

	if runs != 1 {
		t.Fatalf("expected 1 run inside the cadence window, got %d", runs)
	}

	d.mu.Lock()
	d.lastRun["sync-schedule"] = time.Now().Add(-7 * time.Hour)
	d.mu.Unlock()

	d.runDue(context.Background())
	if runs != 2 {
		t.Fatalf("expected job to run again after its cadence, got %d runs", runs)
	}
}

func TestLocalDispatcher_FailedJobsRetryNextTick(t *testing.T) {
	t.Parallel()

	runs := 0
	d := newLocalDispatcher(time.Minute, logging.NewNop(), dispatchJob{
		name:  "create-polls",
		every: time.Hour,
		run: func(context.Context) error {
			runs++
			if runs == 1 {
				return errors.New("platform unavailable")
			}
			return nil
		},
	})

	d.runDue(context.Background())
	d.runDue(context.Background())
	d.runDue(context.Background())

	if runs != 2 {
		t.Fatalf("expected failed job to retry exactly once more, got %d runs", runs)
	}
}
