package match

import (
	"fmt"
	"strconv"
	"strings"
)

// Side is the faction a team played on.
type Side string

const (
	SideRadiant Side = "radiant"
	SideDire    Side = "dire"
)

type DraftAction struct {
	HeroID int  `json:"hero_id"`
	IsPick bool `json:"is_pick"`
	Side   Side `json:"side"`
	Order  int  `json:"order"`
}

type PlayerRow struct {
	AccountID   string `json:"account_id,omitempty"`
	PersonaName string `json:"persona_name,omitempty"`
	HeroID      int    `json:"hero_id"`
	Side        Side   `json:"side"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Assists     int    `json:"assists"`
}

// Detail holds display fields computed from the owning team's point of
// view. It is always safe to refresh, even on manual matches.
type Detail struct {
	DurationSeconds int           `json:"duration_seconds"`
	Side            Side          `json:"side"`
	Won             bool          `json:"won"`
	OpponentTeamID  string        `json:"opponent_team_id,omitempty"`
	OpponentName    string        `json:"opponent_name,omitempty"`
	StartTime       int64         `json:"start_time"`
	LeagueID        string        `json:"league_id,omitempty"`
	Draft           []DraftAction `json:"draft,omitempty"`
	Players         []PlayerRow   `json:"players,omitempty"`
}

func (d *Detail) Clone() *Detail {
	if d == nil {
		return nil
	}
	out := *d
	out.Draft = append([]DraftAction(nil), d.Draft...)
	out.Players = append([]PlayerRow(nil), d.Players...)
	return &out
}

// Match is one entry of a team's history. ID is unique within a team.
type Match struct {
	ID        string  `json:"id"`
	Manual    bool    `json:"manual"`
	PendingID string  `json:"pending_id,omitempty"`
	Loading   bool    `json:"loading"`
	Error     string  `json:"error,omitempty"`
	Detail    *Detail `json:"detail,omitempty"`
}

func (m Match) Clone() Match {
	m.Detail = m.Detail.Clone()
	return m
}

// NeedsEnrichment reports whether detail is missing or the last attempt failed.
func (m Match) NeedsEnrichment() bool {
	return m.Detail == nil || m.Error != ""
}

// ValidateID accepts positive decimal ids as issued by the game client.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("match id is required")
	}
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil || v == 0 {
		return fmt.Errorf("match id %q must be a positive integer", id)
	}
	return nil
}
