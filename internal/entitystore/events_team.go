package entitystore

import (
	"slices"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

// TeamImportStarted inserts the optimistic placeholder. A failed team is
// put back into loading; a healthy one is left alone.
type TeamImportStarted struct {
	TeamID   string
	LeagueID string
}

func (TeamImportStarted) Name() string { return "team_import_started" }

func (e TeamImportStarted) Apply(s State, meta Meta) (State, error) {
	key := team.Key(e.TeamID, e.LeagueID)
	if existing, ok := s.Team(key); ok {
		if existing.Error == "" {
			return s, ErrUnchanged
		}
		return s.updateTeam(key, meta, func(t *team.Team) error {
			t.Loading = true
			t.Error = ""
			return nil
		})
	}

	t := team.Placeholder(e.TeamID, e.LeagueID)
	t.Rev, t.Origin = meta.Rev, meta.Origin
	return s.appendTeam(t), nil
}

type DiscoveredPlayer struct {
	AccountID string
	Name      string
}

// TeamDiscovered merges a discovery result. Only ids not yet present and
// not hidden are added; existing entries, manual or not, are untouched.
type TeamDiscovered struct {
	TeamKey  string
	TeamName string
	MatchIDs []string
	Roster   []DiscoveredPlayer
}

func (TeamDiscovered) Name() string { return "team_discovered" }

func (e TeamDiscovered) Apply(s State, meta Meta) (State, error) {
	next, err := s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		if e.TeamName != "" {
			t.Name = e.TeamName
		}
		t.Resolved = true
		for _, id := range e.MatchIDs {
			if id == "" || t.HasMatchID(id) || t.IsHidden(id) {
				continue
			}
			t.Matches = append(t.Matches, match.Match{ID: id})
		}
		for _, p := range e.Roster {
			if p.AccountID == "" || t.HasAccount(p.AccountID) {
				continue
			}
			t.Roster = append(t.Roster, team.RosterEntry{AccountID: p.AccountID})
		}
		return nil
	})
	if err != nil {
		return s, err
	}

	for _, p := range e.Roster {
		if p.AccountID == "" {
			continue
		}
		next = next.ensurePlayer(p.AccountID, p.Name, false, meta)
	}
	return next, nil
}

type LeagueResolved struct {
	TeamKey    string
	LeagueName string
}

func (LeagueResolved) Name() string { return "league_resolved" }

func (e LeagueResolved) Apply(s State, meta Meta) (State, error) {
	if e.LeagueName == "" {
		return s, ErrUnchanged
	}
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		t.LeagueName = e.LeagueName
		return nil
	})
}

// TeamSettled ends a team-level flow. An empty Error is success.
type TeamSettled struct {
	TeamKey string
	Error   string
}

func (TeamSettled) Name() string { return "team_settled" }

func (e TeamSettled) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		t.Loading = false
		t.Error = e.Error
		return nil
	})
}

// TeamRefreshStarted marks an existing team as loading for a soft refresh.
type TeamRefreshStarted struct {
	TeamKey string
}

func (TeamRefreshStarted) Name() string { return "team_refresh_started" }

func (e TeamRefreshStarted) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		t.Loading = true
		t.Error = ""
		return nil
	})
}

// NonManualCleared is the first half of a force-refresh: discovered
// matches and roster entries go away, manual ones stay.
type NonManualCleared struct {
	TeamKey string
}

func (NonManualCleared) Name() string { return "non_manual_cleared" }

func (e NonManualCleared) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		t.Matches = slices.DeleteFunc(t.Matches, func(m match.Match) bool { return !m.Manual })
		t.Roster = slices.DeleteFunc(t.Roster, func(r team.RosterEntry) bool { return !r.Manual })
		t.Loading = true
		t.Error = ""
		return nil
	})
}

type TeamRemoved struct {
	TeamKey string
}

func (TeamRemoved) Name() string { return "team_removed" }

func (e TeamRemoved) Apply(s State, meta Meta) (State, error) {
	return s.removeTeam(e.TeamKey, meta)
}
