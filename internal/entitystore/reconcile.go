package entitystore

import (
	"maps"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

// newer orders writes by Lamport revision, then origin.
func newer(revA int64, originA string, revB int64, originB string) bool {
	if revA != revB {
		return revA > revB
	}
	return originA > originB
}

// Reconcile merges a snapshot from another execution context into local.
// Each entity keeps its last writer by (Rev, Origin); a tombstone removes
// any entity written at or before it. Diverged reports whether the result
// differs from remote, meaning local held something newer.
func Reconcile(local, remote State) (merged State, diverged bool) {
	merged = EmptyState()
	merged.clock = max(local.clock, remote.clock)

	tombstones := maps.Clone(remote.tombstones)
	if tombstones == nil {
		tombstones = map[string]int64{}
	}
	for key, rev := range local.tombstones {
		if cur, ok := tombstones[key]; !ok || rev > cur {
			tombstones[key] = rev
			diverged = true
		}
	}
	merged.tombstones = tombstones

	buried := func(t team.Team) bool {
		rev, ok := tombstones[teamTombstone(t.ID)]
		return ok && t.Rev <= rev
	}

	remoteByKey := make(map[string]team.Team, len(remote.teams))
	for _, t := range remote.teams {
		remoteByKey[t.ID] = t
	}
	localKeys := make(map[string]struct{}, len(local.teams))

	for _, lt := range local.teams {
		localKeys[lt.ID] = struct{}{}
		rt, inRemote := remoteByKey[lt.ID]
		pick, fromLocal := lt, true
		if inRemote && !newer(lt.Rev, lt.Origin, rt.Rev, rt.Origin) {
			pick, fromLocal = rt, false
		}
		if buried(pick) {
			if inRemote {
				diverged = true
			}
			continue
		}
		if fromLocal && (!inRemote || rt.Rev != lt.Rev || rt.Origin != lt.Origin) {
			diverged = true
		}
		merged.teams = append(merged.teams, pick.Clone())
	}
	for _, rt := range remote.teams {
		if _, seen := localKeys[rt.ID]; seen {
			continue
		}
		if buried(rt) {
			diverged = true
			continue
		}
		merged.teams = append(merged.teams, rt.Clone())
	}

	players := make(map[string]player.Player, len(local.players)+len(remote.players))
	for id, rp := range remote.players {
		players[id] = rp.Clone()
	}
	for id, lp := range local.players {
		rp, ok := remote.players[id]
		if ok && !newer(lp.Rev, lp.Origin, rp.Rev, rp.Origin) {
			continue
		}
		if !ok || rp.Rev != lp.Rev || rp.Origin != lp.Origin {
			diverged = true
		}
		players[id] = lp.Clone()
	}
	merged.players = players

	return merged, diverged
}
