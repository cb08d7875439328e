package entitystore

import (
	"maps"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

const SnapshotVersion = 1

// Snapshot is the serialisable form of State.
type Snapshot struct {
	Version    int              `json:"version"`
	Clock      int64            `json:"clock"`
	Teams      []team.Team      `json:"teams"`
	Players    []player.Player  `json:"players"`
	Tombstones map[string]int64 `json:"tombstones,omitempty"`
}

func (s State) Snapshot() Snapshot {
	return Snapshot{
		Version:    SnapshotVersion,
		Clock:      s.clock,
		Teams:      s.Teams(),
		Players:    s.Players(),
		Tombstones: maps.Clone(s.tombstones),
	}
}

func FromSnapshot(snap Snapshot) State {
	st := EmptyState()
	st.clock = snap.Clock
	for _, t := range snap.Teams {
		if t.ID == "" {
			continue
		}
		if st.teamIndex(t.ID) >= 0 {
			continue
		}
		st.teams = append(st.teams, t.Clone())
		st.clock = max(st.clock, t.Rev)
	}
	for _, p := range snap.Players {
		if p.AccountID == "" {
			continue
		}
		st.players[p.AccountID] = p.Clone()
		st.clock = max(st.clock, p.Rev)
	}
	for key, rev := range snap.Tombstones {
		st.tombstones[key] = rev
		st.clock = max(st.clock, rev)
	}
	return st
}

// interruptedImport marks placeholders whose discovery never finished.
const interruptedImport = "import interrupted"

// settleTransient clears loading flags left by a context that stopped
// mid-flight. In-flight edits are rolled back to their old id.
func settleTransient(s State) State {
	teams := make([]team.Team, len(s.teams))
	for i, t := range s.teams {
		t = t.Clone()
		if t.Loading {
			t.Loading = false
			if !t.Resolved && t.Error == "" {
				t.Error = interruptedImport
			}
		}
		for j := range t.Matches {
			t.Matches[j].Loading = false
			t.Matches[j].PendingID = ""
		}
		for j := range t.Roster {
			t.Roster[j].Loading = false
			t.Roster[j].PendingID = ""
		}
		teams[i] = t
	}
	s.teams = teams

	players := make(map[string]player.Player, len(s.players))
	for id, p := range s.players {
		p = p.Clone()
		p.Loading = false
		players[id] = p
	}
	s.players = players
	return s
}
