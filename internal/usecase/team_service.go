package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
	"go.opentelemetry.io/otel/attribute"
)

type TeamService struct {
	o *Orchestrator
}

func NewTeamService(o *Orchestrator) *TeamService {
	return &TeamService{o: o}
}

func (s *TeamService) ListTeams(_ context.Context) []team.Team {
	return s.o.store.Teams()
}

func (s *TeamService) GetTeam(_ context.Context, key string) (team.Team, error) {
	return s.o.team(key)
}

// ImportTeam inserts a loading placeholder before any request is made and
// queues discovery. A healthy existing team is returned as is.
func (s *TeamService) ImportTeam(ctx context.Context, teamID, leagueID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ImportTeam")
	defer span.End()

	teamID, leagueID = strings.TrimSpace(teamID), strings.TrimSpace(leagueID)
	if err := team.ValidateIDs(teamID, leagueID); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := team.Key(teamID, leagueID)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("team.key", key))
	}

	err := s.o.store.Dispatch(entitystore.TeamImportStarted{TeamID: teamID, LeagueID: leagueID})
	switch {
	case errors.Is(err, entitystore.ErrUnchanged):
		return s.o.team(key)
	case err != nil:
		return team.Team{}, storeError("import team", err)
	}

	return s.schedule(ctx, key, false)
}

// RefreshTeam re-runs discovery, merges new ids, then enriches matches
// without detail or with errors and refreshes the roster.
func (s *TeamService) RefreshTeam(ctx context.Context, key string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.RefreshTeam")
	defer span.End()

	if _, err := s.o.team(key); err != nil {
		return team.Team{}, err
	}
	if err := s.o.store.Dispatch(entitystore.TeamRefreshStarted{TeamKey: key}); err != nil {
		return team.Team{}, storeError("refresh team", err)
	}
	return s.schedule(ctx, key, false)
}

// ForceRefreshTeam drops cached data for the team, clears everything that
// is not manual, and rebuilds it from discovery.
func (s *TeamService) ForceRefreshTeam(ctx context.Context, key string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ForceRefreshTeam")
	defer span.End()

	t, err := s.o.team(key)
	if err != nil {
		return team.Team{}, err
	}
	s.o.invalidateTeam(t)

	if err := s.o.store.Dispatch(entitystore.NonManualCleared{TeamKey: key}); err != nil {
		return team.Team{}, storeError("force refresh team", err)
	}
	return s.schedule(ctx, key, true)
}

// schedule reads the pending team before queueing discovery, so the
// caller sees the loading state even when a worker settles it first.
func (s *TeamService) schedule(ctx context.Context, key string, force bool) (team.Team, error) {
	pending, err := s.o.team(key)
	if err != nil {
		return team.Team{}, err
	}
	s.o.scheduleDiscovery(ctx, key, force)
	return pending, nil
}

func (s *TeamService) RemoveTeam(ctx context.Context, key string) error {
	_, span := startUsecaseSpan(ctx, "usecase.TeamService.RemoveTeam")
	defer span.End()

	t, err := s.o.team(key)
	if err != nil {
		return err
	}
	if err := s.o.store.Dispatch(entitystore.TeamRemoved{TeamKey: key}); err != nil {
		return storeError("remove team", err)
	}
	s.o.cache.InvalidatePrefix(cache.ResourceMatch, t.ID+"/")
	return nil
}

// SearchTeams ranks teams by fuzzy match on name, league name and key. An
// empty query lists every team.
func (s *TeamService) SearchTeams(_ context.Context, query string, limit int) []team.Team {
	teams := s.o.store.Teams()
	query = strings.TrimSpace(query)
	if query == "" {
		return limitTeams(teams, limit)
	}

	fields := []func(team.Team) string{
		func(t team.Team) string { return t.Name },
		func(t team.Team) string { return t.LeagueName },
		func(t team.Team) string { return t.ID },
	}
	best := make(map[int]int, len(teams))
	targets := make([]string, len(teams))
	for _, field := range fields {
		for i, t := range teams {
			targets[i] = field(t)
		}
		for _, rank := range fuzzy.RankFindFold(query, targets) {
			if d, ok := best[rank.OriginalIndex]; !ok || rank.Distance < d {
				best[rank.OriginalIndex] = rank.Distance
			}
		}
	}

	idx := make([]int, 0, len(best))
	for i := range best {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if best[idx[a]] != best[idx[b]] {
			return best[idx[a]] < best[idx[b]]
		}
		return idx[a] < idx[b]
	})

	out := make([]team.Team, 0, len(idx))
	for _, i := range idx {
		out = append(out, teams[i])
	}
	return limitTeams(out, limit)
}

func limitTeams(teams []team.Team, limit int) []team.Team {
	if limit > 0 && len(teams) > limit {
		return teams[:limit]
	}
	return teams
}
