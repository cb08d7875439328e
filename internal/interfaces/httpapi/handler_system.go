package httpapi

import "net/http"

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz", routeAttributes(r)...)
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetQueueStats", routeAttributes(r)...)
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.statsService.QueueStats())
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListNotifications", routeAttributes(r)...)
	defer span.End()

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.notifications.List(limit))
}
