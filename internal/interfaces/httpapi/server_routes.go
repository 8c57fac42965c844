package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/channels/{channelID}/leaderboard", handler.GetLeaderboard)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	jobs := map[string]http.HandlerFunc{
		"POST /v1/internal/jobs/sync-schedule":      handler.RunSyncScheduleJob,
		"POST /v1/internal/jobs/reconcile":          handler.RunReconcileJob,
		"POST /v1/internal/jobs/create-polls":       handler.RunCreatePollsJob,
		"POST /v1/internal/jobs/open-polls":         handler.RunOpenPollsJob,
		"POST /v1/internal/jobs/close-polls":        handler.RunClosePollsJob,
		"POST /v1/internal/jobs/sync-wagers":        handler.RunSyncWagersJob,
		"POST /v1/internal/jobs/post-results":       handler.RunPostResultsJob,
		"POST /v1/internal/jobs/delete-message":     handler.RunDeleteMessageJob,
		"POST /v1/internal/jobs/dispatch-recurring": handler.RunDispatchRecurringJob,
	}
	for pattern, fn := range jobs {
		mux.Handle(pattern, RequireInternalJobToken(internalJobToken, fn))
	}
}
