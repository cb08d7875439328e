package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams", routeAttributes(r)...)
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, teamsToSummaryDTO(h.teamService.ListTeams(ctx)))
}

func (h *Handler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchTeams", routeAttributes(r)...)
	defer span.End()

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	writeSuccess(ctx, w, http.StatusOK, teamsToSummaryDTO(h.teamService.SearchTeams(ctx, query, limit)))
}

func (h *Handler) ImportTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportTeam", routeAttributes(r)...)
	defer span.End()

	var req importTeamRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamService.ImportTeam(ctx, req.TeamID, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "import team failed", "team_id", req.TeamID, "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam", routeAttributes(r)...)
	defer span.End()

	item, err := h.teamService.GetTeam(ctx, r.PathValue("teamKey"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, item)
}

func (h *Handler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeam", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	if err := h.teamService.RemoveTeam(ctx, teamKey); err != nil {
		h.logger.WarnContext(ctx, "remove team failed", "team_key", teamKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"removed": teamKey})
}

func (h *Handler) RefreshTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshTeam", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	item, err := h.teamService.RefreshTeam(ctx, teamKey)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh team failed", "team_key", teamKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}

func (h *Handler) ForceRefreshTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceRefreshTeam", routeAttributes(r)...)
	defer span.End()

	teamKey := r.PathValue("teamKey")
	item, err := h.teamService.ForceRefreshTeam(ctx, teamKey)
	if err != nil {
		h.logger.WarnContext(ctx, "force refresh team failed", "team_key", teamKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, item)
}
