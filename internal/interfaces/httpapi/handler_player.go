package httpapi

import "net/http"

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers", routeAttributes(r)...)
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.playerService.ListPlayers(ctx))
}

func (h *Handler) AddManualPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddManualPlayer", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	var req addPlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.playerService.AddManualPlayer(ctx, teamKey, req.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "add manual player failed", "team_key", teamKey, "account_id", req.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

func (h *Handler) EditManualPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditManualPlayer", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	oldID := r.PathValue("accountID")
	var req editPlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.playerService.EditManualPlayer(ctx, teamKey, oldID, req.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "edit manual player failed",
			"team_key", teamKey,
			"old_account_id", oldID,
			"new_account_id", req.AccountID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

func (h *Handler) RemoveManualPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveManualPlayer", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	accountID := r.PathValue("accountID")
	if err := h.playerService.RemoveManualPlayer(ctx, teamKey, accountID); err != nil {
		h.logger.WarnContext(ctx, "remove manual player failed", "team_key", teamKey, "account_id", accountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"removed": accountID})
}

func (h *Handler) RefreshPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshPlayer", routeAttributes(r)...)
	defer span.End()

	accountID := r.PathValue("accountID")
	item, err := h.playerService.RefreshPlayer(ctx, accountID)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh player failed", "account_id", accountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}
