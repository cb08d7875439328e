package httpapi

import "github.com/riskibarqy/dota-team-tracker/internal/domain/team"

type teamSummaryDTO struct {
	ID           string `json:"id"`
	TeamID       string `json:"team_id"`
	LeagueID     string `json:"league_id"`
	Name         string `json:"name"`
	LeagueName   string `json:"league_name"`
	Resolved     bool   `json:"resolved"`
	Loading      bool   `json:"loading"`
	Error        string `json:"error,omitempty"`
	MatchCount   int    `json:"match_count"`
	LoadingCount int    `json:"loading_count"`
	RosterSize   int    `json:"roster_size"`
}

func teamToSummaryDTO(t team.Team) teamSummaryDTO {
	loading := 0
	for _, m := range t.Matches {
		if m.Loading {
			loading++
		}
	}
	return teamSummaryDTO{
		ID:           t.ID,
		TeamID:       t.TeamID,
		LeagueID:     t.LeagueID,
		Name:         t.Name,
		LeagueName:   t.LeagueName,
		Resolved:     t.Resolved,
		Loading:      t.Loading,
		Error:        t.Error,
		MatchCount:   len(t.Matches),
		LoadingCount: loading,
		RosterSize:   len(t.Roster),
	}
}

func teamsToSummaryDTO(teams []team.Team) []teamSummaryDTO {
	items := make([]teamSummaryDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToSummaryDTO(t))
	}
	return items
}
