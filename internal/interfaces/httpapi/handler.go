package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/usecase"
)

type Handler struct {
	scheduleService  *usecase.ScheduleService
	reconcileService *usecase.ReconcileService
	pollService      *usecase.PollService
	wagerService     *usecase.WagerService
	scoringService   *usecase.ScoringService
	jobOrchestrator  *usecase.JobOrchestratorService
	platform         usecase.ChatPlatform
	season           int
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	scheduleService *usecase.ScheduleService,
	reconcileService *usecase.ReconcileService,
	pollService *usecase.PollService,
	wagerService *usecase.WagerService,
	scoringService *usecase.ScoringService,
	jobOrchestrator *usecase.JobOrchestratorService,
	platform usecase.ChatPlatform,
	season int,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		scheduleService:  scheduleService,
		reconcileService: reconcileService,
		pollService:      pollService,
		wagerService:     wagerService,
		scoringService:   scoringService,
		jobOrchestrator:  jobOrchestrator,
		platform:         platform,
		season:           season,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	channelID, err := strconv.ParseInt(r.PathValue("channelID"), 10, 64)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: channel id must be an integer", usecase.ErrInvalidInput))
		return
	}

	entries, err := h.scoringService.Leaderboard(ctx, channelID)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "channel_id", channelID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, leaderboardEntryDTO{
			Place:     entry.Place,
			Score:     entry.Score,
			UserIDs:   append([]int64(nil), entry.UserIDs...),
			Usernames: append([]string(nil), entry.Usernames...),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type leaderboardEntryDTO struct {
	Place     int      `json:"place"`
	Score     float64  `json:"score"`
	UserIDs   []int64  `json:"userIds"`
	Usernames []string `json:"usernames"`
}

type itemResultDTO struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

type batchReportDTO struct {
	Operation string          `json:"operation"`
	Total     int             `json:"total"`
	OK        int             `json:"ok"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Items     []itemResultDTO `json:"items"`
}

func batchReportToDTO(report *usecase.BatchReport) batchReportDTO {
	items := make([]itemResultDTO, 0, len(report.Items))
	for _, item := range report.Items {
		dto := itemResultDTO{
			Key:    item.Key,
			Status: string(item.Status),
			Reason: item.Reason,
		}
		if item.Err != nil {
			dto.Error = item.Err.Error()
		}
		items = append(items, dto)
	}

	return batchReportDTO{
		Operation: report.Operation,
		Total:     report.Total(),
		OK:        report.OK(),
		Skipped:   report.Skipped(),
		Failed:    report.Failed(),
		Items:     items,
	}
}
