package entitystore

import (
	"slices"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

func rosterAt(t *team.Team, accountID string) (int, error) {
	idx := t.RosterIndex(accountID)
	if idx < 0 {
		return -1, missing("roster entry", t.ID+"/"+accountID)
	}
	return idx, nil
}

type ManualPlayerAdded struct {
	TeamKey   string
	AccountID string
}

func (ManualPlayerAdded) Name() string { return "manual_player_added" }

func (e ManualPlayerAdded) Apply(s State, meta Meta) (State, error) {
	next, err := s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		if t.HasAccount(e.AccountID) {
			return crerr.Wrapf(ErrDuplicateID, "account %s in team %s", e.AccountID, t.ID)
		}
		t.Roster = append(t.Roster, team.RosterEntry{AccountID: e.AccountID, Manual: true, Loading: true})
		return nil
	})
	if err != nil {
		return s, err
	}
	return next.ensurePlayer(e.AccountID, "", true, meta), nil
}

type RosterSwapStarted struct {
	TeamKey string
	OldID   string
	NewID   string
}

func (RosterSwapStarted) Name() string { return "roster_swap_started" }

func (e RosterSwapStarted) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := rosterAt(t, e.OldID)
		if err != nil {
			return err
		}
		cur := t.Roster[idx]
		if !cur.Manual {
			return crerr.Wrapf(ErrNotManual, "account %s", e.OldID)
		}
		if cur.PendingID != "" {
			return crerr.Wrapf(ErrEditInFlight, "account %s -> %s", e.OldID, cur.PendingID)
		}
		if t.HasAccount(e.NewID) {
			return crerr.Wrapf(ErrDuplicateID, "account %s in team %s", e.NewID, t.ID)
		}
		cur.PendingID = e.NewID
		cur.Loading = true
		cur.Error = ""
		t.Roster[idx] = cur
		return nil
	})
}

// RosterSwapped swaps the roster slot and records the fetched profile.
type RosterSwapped struct {
	TeamKey string
	OldID   string
	NewID   string
	Profile player.Profile
}

func (RosterSwapped) Name() string { return "roster_swapped" }

func (e RosterSwapped) Apply(s State, meta Meta) (State, error) {
	next, err := s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := pendingRosterSwap(t, e.OldID, e.NewID)
		if err != nil {
			return err
		}
		t.Roster[idx] = team.RosterEntry{AccountID: e.NewID, Manual: true}
		return nil
	})
	if err != nil {
		return s, err
	}

	p, ok := next.Player(e.NewID)
	if !ok {
		p = player.Player{AccountID: e.NewID, Name: e.NewID}
	}
	p = p.ApplyProfile(e.Profile)
	p.Loading = false
	p.Error = ""
	return next.putPlayer(p, meta), nil
}

type RosterSwapRolledBack struct {
	TeamKey string
	OldID   string
	NewID   string
	Error   string
}

func (RosterSwapRolledBack) Name() string { return "roster_swap_rolled_back" }

func (e RosterSwapRolledBack) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := pendingRosterSwap(t, e.OldID, e.NewID)
		if err != nil {
			return err
		}
		t.Roster[idx].PendingID = ""
		t.Roster[idx].Loading = false
		t.Roster[idx].Error = e.Error
		return nil
	})
}

func pendingRosterSwap(t *team.Team, oldID, newID string) (int, error) {
	idx, err := rosterAt(t, oldID)
	if err != nil {
		return -1, err
	}
	if t.Roster[idx].PendingID != newID {
		return -1, missing("pending roster edit", t.ID+"/"+oldID+"->"+newID)
	}
	return idx, nil
}

// RosterEntryRemoved detaches a player from one team. The player itself is
// kept.
type RosterEntryRemoved struct {
	TeamKey   string
	AccountID string
}

func (RosterEntryRemoved) Name() string { return "roster_entry_removed" }

func (e RosterEntryRemoved) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := rosterAt(t, e.AccountID)
		if err != nil {
			return err
		}
		t.Roster = slices.Delete(t.Roster, idx, idx+1)
		return nil
	})
}

type PlayerFetchStarted struct {
	AccountID string
}

func (PlayerFetchStarted) Name() string { return "player_fetch_started" }

func (e PlayerFetchStarted) Apply(s State, meta Meta) (State, error) {
	p, ok := s.Player(e.AccountID)
	if !ok {
		p = player.Player{AccountID: e.AccountID, Name: e.AccountID}
	}
	p.Loading = true
	p.Error = ""
	return s.putPlayer(p, meta), nil
}

type PlayerFetched struct {
	AccountID string
	Profile   player.Profile
}

func (PlayerFetched) Name() string { return "player_fetched" }

func (e PlayerFetched) Apply(s State, meta Meta) (State, error) {
	p, ok := s.Player(e.AccountID)
	if !ok {
		return s, missing("player", e.AccountID)
	}
	p = p.ApplyProfile(e.Profile)
	p.Loading = false
	p.Error = ""
	next := s.putPlayer(p, meta)
	return next.updateRosterEntries(e.AccountID, meta, func(r *team.RosterEntry) {
		if r.PendingID != "" {
			return
		}
		r.Loading = false
		r.Error = ""
	}), nil
}

type PlayerFetchFailed struct {
	AccountID string
	Error     string
}

func (PlayerFetchFailed) Name() string { return "player_fetch_failed" }

func (e PlayerFetchFailed) Apply(s State, meta Meta) (State, error) {
	p, ok := s.Player(e.AccountID)
	if !ok {
		return s, missing("player", e.AccountID)
	}
	p.Loading = false
	p.Error = e.Error
	next := s.putPlayer(p, meta)
	return next.updateRosterEntries(e.AccountID, meta, func(r *team.RosterEntry) {
		if r.PendingID != "" {
			return
		}
		r.Loading = false
		r.Error = e.Error
	}), nil
}
