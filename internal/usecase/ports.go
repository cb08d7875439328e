package usecase

import (
	"context"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
)

type DiscoveredMember struct {
	AccountID string
	Name      string
}

// TeamDiscovery is a settled Provider A team query.
type TeamDiscovery struct {
	TeamName string
	MatchIDs []string
	Roster   []DiscoveredMember
}

// DiscoveryProvider is Provider A: submit-then-poll team and league lookups.
type DiscoveryProvider interface {
	DiscoverTeam(ctx context.Context, teamID, leagueID string) (TeamDiscovery, error)
	ResolveLeague(ctx context.Context, leagueID string) (string, error)
}

// EnrichmentProvider is Provider B: one round trip per lookup.
type EnrichmentProvider interface {
	EnrichMatch(ctx context.Context, matchID, teamID string) (match.Detail, error)
	FetchPlayer(ctx context.Context, accountID string) (player.Profile, error)
}
