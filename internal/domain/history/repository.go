package history

import (
	"context"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
)

// Record is one enriched match written back to the shared history store.
type Record struct {
	TeamKey    string
	MatchID    string
	Manual     bool
	Detail     match.Detail
	RecordedAt time.Time
}

// Repository is best effort; callers log failures and move on.
type Repository interface {
	PersistMatchHistory(ctx context.Context, teamKey string, matches []match.Match) error
	ListByTeam(ctx context.Context, teamKey string) ([]Record, error)
}

// Enriched keeps matches that carry detail.
func Enriched(matches []match.Match) []match.Match {
	out := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if m.Detail == nil || m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
