package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches", routeAttributes(r)...)
	defer span.End()

	items, err := h.matchService.ListMatches(ctx, r.PathValue("teamKey"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AddManualMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddManualMatch", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	var req addMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.AddManualMatch(ctx, teamKey, req.MatchID)
	if err != nil {
		h.logger.WarnContext(ctx, "add manual match failed", "team_key", teamKey, "match_id", req.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

func (h *Handler) EditManualMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditManualMatch", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	oldID := r.PathValue("matchID")
	var req editMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.EditManualMatch(ctx, teamKey, oldID, req.MatchID)
	if err != nil {
		h.logger.WarnContext(ctx, "edit manual match failed",
			"team_key", teamKey,
			"old_match_id", oldID,
			"new_match_id", req.MatchID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

// RemoveMatch deletes a manual match, or hides any match when hide=true.
func (h *Handler) RemoveMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveMatch", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	matchID := r.PathValue("matchID")
	hide, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("hide")))

	var err error
	if hide {
		err = h.matchService.HideMatch(ctx, teamKey, matchID)
	} else {
		err = h.matchService.RemoveManualMatch(ctx, teamKey, matchID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "remove match failed", "team_key", teamKey, "match_id", matchID, "hide", hide, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"removed": matchID, "hidden": hide})
}

func (h *Handler) RefreshMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshMatch", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	matchID := r.PathValue("matchID")
	item, err := h.matchService.RefreshMatch(ctx, teamKey, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh match failed", "team_key", teamKey, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}
