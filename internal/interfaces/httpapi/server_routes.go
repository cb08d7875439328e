package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/queue-stats", handler.GetQueueStats)
	mux.HandleFunc("GET /v1/notifications", handler.ListNotifications)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("POST /v1/teams", handler.ImportTeam)
	mux.HandleFunc("GET /v1/teams/search", handler.SearchTeams)
	mux.HandleFunc("GET /v1/teams/{teamKey}", handler.GetTeam)
	mux.HandleFunc("DELETE /v1/teams/{teamKey}", handler.RemoveTeam)
	mux.HandleFunc("POST /v1/teams/{teamKey}/refresh", handler.RefreshTeam)
	mux.HandleFunc("POST /v1/teams/{teamKey}/force-refresh", handler.ForceRefreshTeam)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams/{teamKey}/matches", handler.ListMatches)
	mux.HandleFunc("POST /v1/teams/{teamKey}/matches", handler.AddManualMatch)
	mux.HandleFunc("PUT /v1/teams/{teamKey}/matches/{matchID}", handler.EditManualMatch)
	mux.HandleFunc("DELETE /v1/teams/{teamKey}/matches/{matchID}", handler.RemoveMatch)
	mux.HandleFunc("POST /v1/teams/{teamKey}/matches/{matchID}/refresh", handler.RefreshMatch)
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/teams/{teamKey}/players", handler.AddManualPlayer)
	mux.HandleFunc("PUT /v1/teams/{teamKey}/players/{accountID}", handler.EditManualPlayer)
	mux.HandleFunc("DELETE /v1/teams/{teamKey}/players/{accountID}", handler.RemoveManualPlayer)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("POST /v1/players/{accountID}/refresh", handler.RefreshPlayer)
}
