package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
)

type MatchService struct {
	o *Orchestrator
}

func NewMatchService(o *Orchestrator) *MatchService {
	return &MatchService{o: o}
}

func (s *MatchService) ListMatches(_ context.Context, teamKey string) ([]match.Match, error) {
	t, err := s.o.team(teamKey)
	if err != nil {
		return nil, err
	}
	return t.Matches, nil
}

// AddManualMatch appends a user-entered match and queues its enrichment.
// Manual matches are never replaced by discovery.
func (s *MatchService) AddManualMatch(ctx context.Context, teamKey, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.AddManualMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if err := match.ValidateID(matchID); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.o.team(teamKey); err != nil {
		return match.Match{}, err
	}
	if err := s.o.store.Dispatch(entitystore.ManualMatchAdded{TeamKey: teamKey, MatchID: matchID}); err != nil {
		return match.Match{}, storeError("add manual match", err)
	}

	t, err := s.o.team(teamKey)
	if err != nil {
		return match.Match{}, err
	}
	pending, err := findMatch(t, matchID)
	if err != nil {
		return match.Match{}, err
	}
	s.o.enrichMatches(ctx, t, []string{matchID})
	return pending, nil
}

// EditManualMatch swaps a manual match id. The old entry stays in place,
// loading, until the new id is fetched; a failed fetch restores it.
func (s *MatchService) EditManualMatch(ctx context.Context, teamKey, oldID, newID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.EditManualMatch")
	defer span.End()

	oldID, newID = strings.TrimSpace(oldID), strings.TrimSpace(newID)
	if err := match.ValidateID(newID); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if oldID == newID {
		return match.Match{}, fmt.Errorf("%w: new match id equals old id %s", ErrInvalidInput, oldID)
	}
	t, err := s.o.team(teamKey)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.o.store.Dispatch(entitystore.MatchSwapStarted{TeamKey: teamKey, OldID: oldID, NewID: newID}); err != nil {
		return match.Match{}, storeError("edit manual match", err)
	}

	pending, err := s.current(teamKey, oldID)
	if err != nil {
		return match.Match{}, err
	}
	s.o.cache.Invalidate(cache.ResourceMatch, cache.MatchID(teamKey, oldID))
	s.o.swapMatch(ctx, t, oldID, newID)
	return pending, nil
}

// RemoveManualMatch deletes a user-entered match. Discovered matches are
// hidden instead so discovery does not bring them back.
func (s *MatchService) RemoveManualMatch(ctx context.Context, teamKey, matchID string) error {
	_, span := startUsecaseSpan(ctx, "usecase.MatchService.RemoveManualMatch")
	defer span.End()

	m, err := s.lookup(teamKey, matchID)
	if err != nil {
		return err
	}
	if !m.Manual {
		return fmt.Errorf("%w: match %s was discovered, hide it instead", ErrInvalidInput, matchID)
	}
	if err := s.o.store.Dispatch(entitystore.MatchRemoved{TeamKey: teamKey, MatchID: matchID}); err != nil {
		return storeError("remove manual match", err)
	}
	s.o.cache.Invalidate(cache.ResourceMatch, cache.MatchID(teamKey, matchID))
	return nil
}

func (s *MatchService) HideMatch(ctx context.Context, teamKey, matchID string) error {
	_, span := startUsecaseSpan(ctx, "usecase.MatchService.HideMatch")
	defer span.End()

	if _, err := s.lookup(teamKey, matchID); err != nil {
		return err
	}
	if err := s.o.store.Dispatch(entitystore.MatchHidden{TeamKey: teamKey, MatchID: matchID}); err != nil {
		return storeError("hide match", err)
	}
	s.o.cache.Invalidate(cache.ResourceMatch, cache.MatchID(teamKey, matchID))
	return nil
}

// RefreshMatch drops only this match's cache entry and re-enriches it.
func (s *MatchService) RefreshMatch(ctx context.Context, teamKey, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RefreshMatch")
	defer span.End()

	m, err := s.lookup(teamKey, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if m.PendingID != "" {
		return match.Match{}, fmt.Errorf("%w: match %s has an edit in flight", ErrInvalidInput, matchID)
	}

	s.o.cache.Invalidate(cache.ResourceMatch, cache.MatchID(teamKey, m.ID))
	if err := s.o.store.Dispatch(entitystore.MatchEnrichmentStarted{TeamKey: teamKey, MatchID: m.ID}); err != nil {
		return match.Match{}, storeError("refresh match", err)
	}
	t, err := s.o.team(teamKey)
	if err != nil {
		return match.Match{}, err
	}
	pending, err := findMatch(t, m.ID)
	if err != nil {
		return match.Match{}, err
	}
	s.o.enrichMatches(ctx, t, []string{m.ID})
	return pending, nil
}

func (s *MatchService) lookup(teamKey, matchID string) (match.Match, error) {
	t, err := s.o.team(teamKey)
	if err != nil {
		return match.Match{}, err
	}
	return findMatch(t, strings.TrimSpace(matchID))
}

func (s *MatchService) current(teamKey, matchID string) (match.Match, error) {
	t, err := s.o.team(teamKey)
	if err != nil {
		return match.Match{}, err
	}
	return findMatch(t, matchID)
}

func findMatch(t team.Team, matchID string) (match.Match, error) {
	idx := t.MatchIndex(matchID)
	if idx < 0 {
		return match.Match{}, fmt.Errorf("%w: match=%s team=%s", ErrNotFound, matchID, t.ID)
	}
	return t.Matches[idx], nil
}
