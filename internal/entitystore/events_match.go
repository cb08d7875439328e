package entitystore

import (
	"slices"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
)

func matchAt(t *team.Team, id string) (int, error) {
	idx := t.MatchIndex(id)
	if idx < 0 {
		return -1, missing("match", t.ID+"/"+id)
	}
	return idx, nil
}

type MatchEnrichmentStarted struct {
	TeamKey string
	MatchID string
}

func (MatchEnrichmentStarted) Name() string { return "match_enrichment_started" }

func (e MatchEnrichmentStarted) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.MatchID)
		if err != nil {
			return err
		}
		t.Matches[idx].Loading = true
		t.Matches[idx].Error = ""
		return nil
	})
}

// MatchEnriched replaces a discovered match wholesale. For a manual match
// only Detail is taken.
type MatchEnriched struct {
	TeamKey string
	MatchID string
	Detail  match.Detail
}

func (MatchEnriched) Name() string { return "match_enriched" }

func (e MatchEnriched) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.MatchID)
		if err != nil {
			return err
		}
		detail := e.Detail
		cur := t.Matches[idx]
		if cur.Manual {
			cur.Detail = detail.Clone()
			cur.Loading = cur.PendingID != ""
			cur.Error = ""
			t.Matches[idx] = cur
			return nil
		}
		t.Matches[idx] = match.Match{ID: e.MatchID, Detail: detail.Clone()}
		return nil
	})
}

type MatchEnrichmentFailed struct {
	TeamKey string
	MatchID string
	Error   string
}

func (MatchEnrichmentFailed) Name() string { return "match_enrichment_failed" }

func (e MatchEnrichmentFailed) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.MatchID)
		if err != nil {
			return err
		}
		t.Matches[idx].Loading = t.Matches[idx].PendingID != ""
		t.Matches[idx].Error = e.Error
		return nil
	})
}

type ManualMatchAdded struct {
	TeamKey string
	MatchID string
}

func (ManualMatchAdded) Name() string { return "manual_match_added" }

func (e ManualMatchAdded) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		if t.HasMatchID(e.MatchID) {
			return crerr.Wrapf(ErrDuplicateID, "match %s in team %s", e.MatchID, t.ID)
		}
		t.HiddenMatchIDs = slices.DeleteFunc(t.HiddenMatchIDs, func(id string) bool { return id == e.MatchID })
		t.Matches = append(t.Matches, match.Match{ID: e.MatchID, Manual: true, Loading: true})
		return nil
	})
}

// MatchSwapStarted begins an id edit of a manual match. The old entry stays
// in its slot, loading, with the new id recorded as pending.
type MatchSwapStarted struct {
	TeamKey string
	OldID   string
	NewID   string
}

func (MatchSwapStarted) Name() string { return "match_swap_started" }

func (e MatchSwapStarted) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.OldID)
		if err != nil {
			return err
		}
		cur := t.Matches[idx]
		if !cur.Manual {
			return crerr.Wrapf(ErrNotManual, "match %s", e.OldID)
		}
		if cur.PendingID != "" {
			return crerr.Wrapf(ErrEditInFlight, "match %s -> %s", e.OldID, cur.PendingID)
		}
		if t.HasMatchID(e.NewID) {
			return crerr.Wrapf(ErrDuplicateID, "match %s in team %s", e.NewID, t.ID)
		}
		cur.PendingID = e.NewID
		cur.Loading = true
		cur.Error = ""
		t.Matches[idx] = cur
		return nil
	})
}

// MatchSwapped replaces the old entry with the new id in the same slot.
type MatchSwapped struct {
	TeamKey string
	OldID   string
	NewID   string
	Detail  *match.Detail
}

func (MatchSwapped) Name() string { return "match_swapped" }

func (e MatchSwapped) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := pendingSwap(t, e.OldID, e.NewID)
		if err != nil {
			return err
		}
		t.Matches[idx] = match.Match{ID: e.NewID, Manual: true, Detail: e.Detail.Clone()}
		return nil
	})
}

type MatchSwapRolledBack struct {
	TeamKey string
	OldID   string
	NewID   string
	Error   string
}

func (MatchSwapRolledBack) Name() string { return "match_swap_rolled_back" }

func (e MatchSwapRolledBack) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := pendingSwap(t, e.OldID, e.NewID)
		if err != nil {
			return err
		}
		t.Matches[idx].PendingID = ""
		t.Matches[idx].Loading = false
		t.Matches[idx].Error = e.Error
		return nil
	})
}

func pendingSwap(t *team.Team, oldID, newID string) (int, error) {
	idx, err := matchAt(t, oldID)
	if err != nil {
		return -1, err
	}
	if t.Matches[idx].PendingID != newID {
		return -1, missing("pending match edit", t.ID+"/"+oldID+"->"+newID)
	}
	return idx, nil
}

type MatchRemoved struct {
	TeamKey string
	MatchID string
}

func (MatchRemoved) Name() string { return "match_removed" }

func (e MatchRemoved) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.MatchID)
		if err != nil {
			return err
		}
		t.Matches = slices.Delete(t.Matches, idx, idx+1)
		return nil
	})
}

// MatchHidden removes a match and remembers its id so later discovery
// merges skip it.
type MatchHidden struct {
	TeamKey string
	MatchID string
}

func (MatchHidden) Name() string { return "match_hidden" }

func (e MatchHidden) Apply(s State, meta Meta) (State, error) {
	return s.updateTeam(e.TeamKey, meta, func(t *team.Team) error {
		idx, err := matchAt(t, e.MatchID)
		if err != nil {
			return err
		}
		t.Matches = slices.Delete(t.Matches, idx, idx+1)
		if !t.IsHidden(e.MatchID) {
			t.HiddenMatchIDs = append(t.HiddenMatchIDs, e.MatchID)
		}
		return nil
	})
}
