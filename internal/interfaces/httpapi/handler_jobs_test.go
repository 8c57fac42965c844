package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/usecase"
)

type stubPlatform struct {
	usecase.ChatPlatform

	deletedChannelID int64
	deletedMessageID int64
}

func (p *stubPlatform) DeleteMessage(_ context.Context, channelID, messageID int64) error {
	p.deletedChannelID = channelID
	p.deletedMessageID = messageID
	return nil
}

type recordingQueue struct {
	paths []string
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, _ any, _ time.Duration, _ string) error {
	q.paths = append(q.paths, path)
	return nil
}

func newJobTestRouter(t *testing.T, platform usecase.ChatPlatform, queue usecase.JobQueue) http.Handler {
	t.Helper()

	orchestrator := usecase.NewJobOrchestratorService(queue, logging.NewNop())
	handler := NewHandler(nil, nil, nil, nil, nil, orchestrator, platform, 2025, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), nil, "job-token")
}

func TestInternalJobRoutes_RejectMissingToken(t *testing.T) {
	router := newJobTestRouter(t, &stubPlatform{}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/dispatch-recurring", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestInternalJobRoutes_RejectWrongToken(t *testing.T) {
	router := newJobTestRouter(t, &stubPlatform{}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/dispatch-recurring", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRunDispatchRecurringJob_EnqueuesAllRecurringJobs(t *testing.T) {
	queue := &recordingQueue{}
	router := newJobTestRouter(t, &stubPlatform{}, queue)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/dispatch-recurring", nil)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.paths) == 0 {
		t.Fatalf("expected recurring jobs to be enqueued")
	}
	for _, path := range queue.paths {
		if !strings.HasPrefix(path, "/v1/internal/jobs/") {
			t.Fatalf("unexpected job path %q", path)
		}
	}
}

func TestRunDeleteMessageJob_DeletesMessage(t *testing.T) {
	platform := &stubPlatform{}
	router := newJobTestRouter(t, platform, &recordingQueue{})

	body := strings.NewReader(`{"channel_id": 42, "message_id": 1001}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/delete-message", body)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if platform.deletedChannelID != 42 || platform.deletedMessageID != 1001 {
		t.Fatalf("unexpected delete target: channel=%d message=%d", platform.deletedChannelID, platform.deletedMessageID)
	}
}

func TestRunDeleteMessageJob_RejectsMissingFields(t *testing.T) {
	router := newJobTestRouter(t, &stubPlatform{}, &recordingQueue{})

	body := strings.NewReader(`{"channel_id": 42}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/delete-message", body)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
