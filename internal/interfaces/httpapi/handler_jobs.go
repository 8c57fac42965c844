package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/ottersden/otterball/internal/usecase"
)

func (h *Handler) RunSyncScheduleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncScheduleJob")
	defer span.End()

	if h.scheduleService == nil {
		writeError(ctx, w, fmt.Errorf("%w: schedule service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req syncScheduleRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	season := req.Season
	if season == 0 {
		season = h.season
	}

	h.runBatchJob(ctx, w, "sync-schedule", func(ctx context.Context) (*usecase.BatchReport, error) {
		return h.scheduleService.SyncSeason(ctx, season)
	})
}

func (h *Handler) RunReconcileJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconcileJob")
	defer span.End()

	if h.reconcileService == nil {
		writeError(ctx, w, fmt.Errorf("%w: reconcile service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "reconcile", h.reconcileService.Reconcile)
}

func (h *Handler) RunCreatePollsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCreatePollsJob")
	defer span.End()

	if h.pollService == nil {
		writeError(ctx, w, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "create-polls", h.pollService.CreatePolls)
}

func (h *Handler) RunOpenPollsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunOpenPollsJob")
	defer span.End()

	if h.pollService == nil {
		writeError(ctx, w, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "open-polls", h.pollService.OpenPolls)
}

func (h *Handler) RunClosePollsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunClosePollsJob")
	defer span.End()

	if h.pollService == nil {
		writeError(ctx, w, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "close-polls", h.pollService.ClosePolls)
}

func (h *Handler) RunSyncWagersJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncWagersJob")
	defer span.End()

	if h.wagerService == nil {
		writeError(ctx, w, fmt.Errorf("%w: wager service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "sync-wagers", h.wagerService.SyncOpenPolls)
}

func (h *Handler) RunPostResultsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPostResultsJob")
	defer span.End()

	if h.pollService == nil {
		writeError(ctx, w, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "post-results", h.pollService.PostResults)
}

func (h *Handler) RunDeleteMessageJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDeleteMessageJob")
	defer span.End()

	if h.platform == nil {
		writeError(ctx, w, fmt.Errorf("%w: chat platform is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req deleteMessageRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.platform.DeleteMessage(ctx, req.ChannelID, req.MessageID); err != nil {
		h.logger.WarnContext(ctx, "delete message job failed",
			"channel_id", req.ChannelID, "message_id", req.MessageID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) RunDispatchRecurringJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDispatchRecurringJob")
	defer span.End()

	if h.jobOrchestrator == nil {
		writeError(ctx, w, fmt.Errorf("%w: job orchestrator is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.runBatchJob(ctx, w, "dispatch-recurring", h.jobOrchestrator.DispatchRecurring)
}

func (h *Handler) runBatchJob(
	ctx context.Context,
	w http.ResponseWriter,
	jobName string,
	run func(ctx context.Context) (*usecase.BatchReport, error),
) {
	report, err := run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed", "job_name", jobName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, batchReportToDTO(report))
}

func decodeJobRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type syncScheduleRequest struct {
	Season int `json:"season" validate:"omitempty,min=1999"`
}

type deleteMessageRequest struct {
	ChannelID int64 `json:"channel_id" validate:"required"`
	MessageID int64 `json:"message_id" validate:"required"`
}
