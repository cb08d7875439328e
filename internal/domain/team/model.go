package team

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
)

// RosterEntry attaches a player to a team. Manual entries are user-added
// standins and never replaced by roster discovery.
type RosterEntry struct {
	AccountID string `json:"account_id"`
	Manual    bool   `json:"manual"`
	PendingID string `json:"pending_id,omitempty"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
}

// Team is an amateur team's participation in one league.
type Team struct {
	ID             string        `json:"id"`
	TeamID         string        `json:"team_id"`
	LeagueID       string        `json:"league_id"`
	Name           string        `json:"name"`
	LeagueName     string        `json:"league_name"`
	Roster         []RosterEntry `json:"roster"`
	Matches        []match.Match `json:"matches"`
	HiddenMatchIDs []string      `json:"hidden_match_ids,omitempty"`
	Resolved       bool          `json:"resolved"`
	Loading        bool          `json:"loading"`
	Error          string        `json:"error,omitempty"`
	Rev            int64         `json:"rev"`
	Origin         string        `json:"origin,omitempty"`
}

func Key(teamID, leagueID string) string {
	return strings.TrimSpace(teamID) + "-" + strings.TrimSpace(leagueID)
}

// ParseKey splits "<teamID>-<leagueID>".
func ParseKey(key string) (string, string, error) {
	teamID, leagueID, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return "", "", fmt.Errorf("team key %q must be <teamID>-<leagueID>", key)
	}
	if err := ValidateIDs(teamID, leagueID); err != nil {
		return "", "", err
	}
	return teamID, leagueID, nil
}

func ValidateIDs(teamID, leagueID string) error {
	if err := validatePositive("team id", teamID); err != nil {
		return err
	}
	return validatePositive("league id", leagueID)
}

func validatePositive(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("%s %q must be a positive integer", field, v)
	}
	return nil
}

// Placeholder is the optimistic team shown before discovery settles.
func Placeholder(teamID, leagueID string) Team {
	return Team{
		ID:         Key(teamID, leagueID),
		TeamID:     teamID,
		LeagueID:   leagueID,
		Name:       teamID,
		LeagueName: leagueID,
		Roster:     []RosterEntry{},
		Matches:    []match.Match{},
		Loading:    true,
	}
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.ID != Key(t.TeamID, t.LeagueID) {
		return fmt.Errorf("team id %q does not match team_id=%s league_id=%s", t.ID, t.TeamID, t.LeagueID)
	}

	seen := make(map[string]struct{}, len(t.Matches))
	for _, m := range t.Matches {
		for _, id := range []string{m.ID, m.PendingID} {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("duplicate match id %s in team %s", id, t.ID)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}

func (t Team) Clone() Team {
	t.Roster = append([]RosterEntry(nil), t.Roster...)
	matches := make([]match.Match, len(t.Matches))
	for i, m := range t.Matches {
		matches[i] = m.Clone()
	}
	t.Matches = matches
	t.HiddenMatchIDs = append([]string(nil), t.HiddenMatchIDs...)
	return t
}

func (t Team) MatchIndex(id string) int {
	return slices.IndexFunc(t.Matches, func(m match.Match) bool { return m.ID == id })
}

// HasMatchID includes ids that are the target of an in-flight edit.
func (t Team) HasMatchID(id string) bool {
	return slices.ContainsFunc(t.Matches, func(m match.Match) bool {
		return m.ID == id || m.PendingID == id
	})
}

func (t Team) IsHidden(id string) bool {
	return slices.Contains(t.HiddenMatchIDs, id)
}

func (t Team) RosterIndex(accountID string) int {
	return slices.IndexFunc(t.Roster, func(r RosterEntry) bool { return r.AccountID == accountID })
}

func (t Team) HasAccount(accountID string) bool {
	return slices.ContainsFunc(t.Roster, func(r RosterEntry) bool {
		return r.AccountID == accountID || r.PendingID == accountID
	})
}

func (t Team) MatchIDs() []string {
	out := make([]string, 0, len(t.Matches))
	for _, m := range t.Matches {
		out = append(out, m.ID)
	}
	return out
}

func (t Team) AccountIDs() []string {
	out := make([]string, 0, len(t.Roster))
	for _, r := range t.Roster {
		out = append(out, r.AccountID)
	}
	return out
}
