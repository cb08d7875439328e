package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	qb "github.com/riskibarqy/dota-team-tracker/internal/platform/querybuilder"
)

type HistoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

func (r *HistoryRepository) PersistMatchHistory(ctx context.Context, teamKey string, matches []match.Match) error {
	enriched := history.Enriched(matches)
	if len(enriched) == 0 {
		return nil
	}

	recordedAt := r.now().UTC()
	rows := make([]matchHistoryTableModel, 0, len(enriched))
	for _, m := range enriched {
		detail, err := sonic.ConfigStd.Marshal(m.Detail)
		if err != nil {
			return fmt.Errorf("encode match detail match_id=%s: %w", m.ID, err)
		}
		rows = append(rows, matchHistoryTableModel{
			TeamKey:    teamKey,
			MatchID:    m.ID,
			Manual:     m.Manual,
			Detail:     string(detail),
			RecordedAt: recordedAt,
		})
	}

	query, args, err := qb.InsertModels("match_history", rows,
		"ON CONFLICT (team_key, match_id) DO UPDATE SET manual = EXCLUDED.manual, detail = EXCLUDED.detail, recorded_at = EXCLUDED.recorded_at")
	if err != nil {
		return fmt.Errorf("build upsert match history query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match history team_key=%s: %w", teamKey, err)
	}
	return nil
}

func (r *HistoryRepository) ListByTeam(ctx context.Context, teamKey string) ([]history.Record, error) {
	query, args, err := qb.Select("team_key", "match_id", "manual", "detail", "recorded_at").
		From("match_history").
		Where(qb.Eq("team_key", teamKey)).
		OrderBy("recorded_at", "match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match history query: %w", err)
	}

	var rows []matchHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match history team_key=%s: %w", teamKey, err)
	}

	out := make([]history.Record, 0, len(rows))
	for _, row := range rows {
		var detail match.Detail
		if err := sonic.ConfigStd.UnmarshalFromString(row.Detail, &detail); err != nil {
			return nil, fmt.Errorf("decode match detail match_id=%s: %w", row.MatchID, err)
		}
		out = append(out, history.Record{
			TeamKey:    row.TeamKey,
			MatchID:    row.MatchID,
			Manual:     row.Manual,
			Detail:     detail,
			RecordedAt: row.RecordedAt,
		})
	}
	return out, nil
}
