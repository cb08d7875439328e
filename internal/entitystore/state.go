package entitystore

import (
	"maps"
	"slices"
	"sort"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

// Meta is stamped onto every entity an event touches.
type Meta struct {
	Rev    int64
	Origin string
}

// State is an immutable value. Events return a new State and never modify
// the one they were given; accessors hand out copies.
type State struct {
	teams      []team.Team
	players    map[string]player.Player
	tombstones map[string]int64
	clock      int64
}

func EmptyState() State {
	return State{
		players:    map[string]player.Player{},
		tombstones: map[string]int64{},
	}
}

func teamTombstone(key string) string {
	return "team:" + key
}

func (s State) Clock() int64 { return s.clock }

func (s State) Teams() []team.Team {
	out := make([]team.Team, len(s.teams))
	for i, t := range s.teams {
		out[i] = t.Clone()
	}
	return out
}

func (s State) Team(key string) (team.Team, bool) {
	idx := s.teamIndex(key)
	if idx < 0 {
		return team.Team{}, false
	}
	return s.teams[idx].Clone(), true
}

// Players are ordered by account id.
func (s State) Players() []player.Player {
	out := make([]player.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (s State) Player(accountID string) (player.Player, bool) {
	p, ok := s.players[accountID]
	if !ok {
		return player.Player{}, false
	}
	return p.Clone(), true
}

func (s State) Tombstones() map[string]int64 {
	return maps.Clone(s.tombstones)
}

func (s State) teamIndex(key string) int {
	return slices.IndexFunc(s.teams, func(t team.Team) bool { return t.ID == key })
}

func (s State) withClock(rev int64) State {
	if rev > s.clock {
		s.clock = rev
	}
	return s
}

func (s State) appendTeam(t team.Team) State {
	s.teams = append(slices.Clip(s.teams), t)
	return s
}

func (s State) updateTeam(key string, meta Meta, fn func(*team.Team) error) (State, error) {
	idx := s.teamIndex(key)
	if idx < 0 {
		return s, missing("team", key)
	}

	t := s.teams[idx].Clone()
	if err := fn(&t); err != nil {
		return s, err
	}
	t.Rev, t.Origin = meta.Rev, meta.Origin

	teams := slices.Clone(s.teams)
	teams[idx] = t
	s.teams = teams
	return s, nil
}

func (s State) removeTeam(key string, meta Meta) (State, error) {
	idx := s.teamIndex(key)
	if idx < 0 {
		return s, missing("team", key)
	}
	s.teams = slices.Delete(slices.Clone(s.teams), idx, idx+1)
	tombstones := maps.Clone(s.tombstones)
	if tombstones == nil {
		tombstones = map[string]int64{}
	}
	tombstones[teamTombstone(key)] = meta.Rev
	s.tombstones = tombstones
	return s, nil
}

// putPlayer stores p stamped with meta.
func (s State) putPlayer(p player.Player, meta Meta) State {
	p.Rev, p.Origin = meta.Rev, meta.Origin
	players := maps.Clone(s.players)
	if players == nil {
		players = map[string]player.Player{}
	}
	players[p.AccountID] = p
	s.players = players
	return s
}

// ensurePlayer creates a player for accountID if none exists. A known name
// fills a missing display name.
func (s State) ensurePlayer(accountID, name string, loading bool, meta Meta) State {
	existing, ok := s.players[accountID]
	if !ok {
		return s.putPlayer(player.Player{
			AccountID: accountID,
			Name:      firstNonEmpty(name, accountID),
			Loading:   loading,
		}, meta)
	}
	if name != "" && (existing.Name == "" || existing.Name == accountID) {
		existing = existing.Clone()
		existing.Name = name
		return s.putPlayer(existing, meta)
	}
	return s
}

// updateRosterEntries applies fn to every roster entry for accountID across
// teams, stamping only the teams that changed.
func (s State) updateRosterEntries(accountID string, meta Meta, fn func(*team.RosterEntry)) State {
	var teams []team.Team
	for i, t := range s.teams {
		idx := t.RosterIndex(accountID)
		if idx < 0 {
			continue
		}
		before := t.Roster[idx]
		after := before
		fn(&after)
		if after == before {
			continue
		}
		if teams == nil {
			teams = slices.Clone(s.teams)
		}
		updated := t.Clone()
		updated.Roster[idx] = after
		updated.Rev, updated.Origin = meta.Rev, meta.Origin
		teams[i] = updated
	}
	if teams != nil {
		s.teams = teams
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
