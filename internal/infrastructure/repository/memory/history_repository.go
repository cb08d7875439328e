package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
)

type HistoryRepository struct {
	mu     sync.RWMutex
	items  map[string]map[string]history.Record
	orders map[string][]string
	now    func() time.Time
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		items:  make(map[string]map[string]history.Record),
		orders: make(map[string][]string),
		now:    time.Now,
	}
}

func (r *HistoryRepository) PersistMatchHistory(_ context.Context, teamKey string, matches []match.Match) error {
	enriched := history.Enriched(matches)
	if len(enriched) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.items[teamKey]
	if !ok {
		records = make(map[string]history.Record, len(enriched))
		r.items[teamKey] = records
	}
	recordedAt := r.now().UTC()
	for _, m := range enriched {
		if _, exists := records[m.ID]; !exists {
			r.orders[teamKey] = append(r.orders[teamKey], m.ID)
		}
		records[m.ID] = history.Record{
			TeamKey:    teamKey,
			MatchID:    m.ID,
			Manual:     m.Manual,
			Detail:     *m.Detail.Clone(),
			RecordedAt: recordedAt,
		}
	}
	return nil
}

func (r *HistoryRepository) ListByTeam(_ context.Context, teamKey string) ([]history.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]history.Record, 0, len(r.orders[teamKey]))
	for _, id := range r.orders[teamKey] {
		out = append(out, r.items[teamKey][id])
	}
	return out, nil
}
