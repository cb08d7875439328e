package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
)

type PlayerService struct {
	o *Orchestrator
}

func NewPlayerService(o *Orchestrator) *PlayerService {
	return &PlayerService{o: o}
}

func (s *PlayerService) ListPlayers(_ context.Context) []player.Player {
	return s.o.store.Players()
}

func (s *PlayerService) GetPlayer(_ context.Context, accountID string) (player.Player, error) {
	p, ok := s.o.store.Player(strings.TrimSpace(accountID))
	if !ok {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, accountID)
	}
	return p, nil
}

// AddManualPlayer attaches a standin to the roster and fetches the profile.
func (s *PlayerService) AddManualPlayer(ctx context.Context, teamKey, accountID string) (team.RosterEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.AddManualPlayer")
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if err := player.ValidateAccountID(accountID); err != nil {
		return team.RosterEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.o.team(teamKey); err != nil {
		return team.RosterEntry{}, err
	}
	if err := s.o.store.Dispatch(entitystore.ManualPlayerAdded{TeamKey: teamKey, AccountID: accountID}); err != nil {
		return team.RosterEntry{}, storeError("add manual player", err)
	}

	pending, err := s.entry(teamKey, accountID)
	if err != nil {
		return team.RosterEntry{}, err
	}
	s.o.fetchPlayer(ctx, accountID)
	return pending, nil
}

// EditManualPlayer swaps a standin's account id once the new profile is
// fetched; a failed fetch keeps the old entry.
func (s *PlayerService) EditManualPlayer(ctx context.Context, teamKey, oldID, newID string) (team.RosterEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.EditManualPlayer")
	defer span.End()

	oldID, newID = strings.TrimSpace(oldID), strings.TrimSpace(newID)
	if err := player.ValidateAccountID(newID); err != nil {
		return team.RosterEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if oldID == newID {
		return team.RosterEntry{}, fmt.Errorf("%w: new account id equals old id %s", ErrInvalidInput, oldID)
	}
	if _, err := s.o.team(teamKey); err != nil {
		return team.RosterEntry{}, err
	}
	if err := s.o.store.Dispatch(entitystore.RosterSwapStarted{TeamKey: teamKey, OldID: oldID, NewID: newID}); err != nil {
		return team.RosterEntry{}, storeError("edit manual player", err)
	}

	pending, err := s.entry(teamKey, oldID)
	if err != nil {
		return team.RosterEntry{}, err
	}
	s.o.swapPlayer(ctx, teamKey, oldID, newID)
	return pending, nil
}

// RemoveManualPlayer detaches a standin. The player record is kept.
func (s *PlayerService) RemoveManualPlayer(ctx context.Context, teamKey, accountID string) error {
	_, span := startUsecaseSpan(ctx, "usecase.PlayerService.RemoveManualPlayer")
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	entry, err := s.entry(teamKey, accountID)
	if err != nil {
		return err
	}
	if !entry.Manual {
		return fmt.Errorf("%w: account %s came from discovery", ErrInvalidInput, accountID)
	}
	if err := s.o.store.Dispatch(entitystore.RosterEntryRemoved{TeamKey: teamKey, AccountID: accountID}); err != nil {
		return storeError("remove manual player", err)
	}
	return nil
}

// RefreshPlayer drops only this player's cache entry and fetches again.
func (s *PlayerService) RefreshPlayer(ctx context.Context, accountID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.RefreshPlayer")
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if err := player.ValidateAccountID(accountID); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, ok := s.o.store.Player(accountID); !ok {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, accountID)
	}

	s.o.cache.Invalidate(cache.ResourcePlayer, accountID)
	if err := s.o.store.Dispatch(entitystore.PlayerFetchStarted{AccountID: accountID}); err != nil {
		return player.Player{}, storeError("refresh player", err)
	}
	pending, err := s.GetPlayer(ctx, accountID)
	if err != nil {
		return player.Player{}, err
	}
	s.o.fetchPlayer(ctx, accountID)
	return pending, nil
}

func (s *PlayerService) entry(teamKey, accountID string) (team.RosterEntry, error) {
	t, err := s.o.team(teamKey)
	if err != nil {
		return team.RosterEntry{}, err
	}
	idx := t.RosterIndex(accountID)
	if idx < 0 {
		return team.RosterEntry{}, fmt.Errorf("%w: account=%s team=%s", ErrNotFound, accountID, teamKey)
	}
	return t.Roster[idx], nil
}
