package postgres

import "time"

type matchHistoryTableModel struct {
	TeamKey    string    `db:"team_key"`
	MatchID    string    `db:"match_id"`
	Manual     bool      `db:"manual"`
	Detail     string    `db:"detail"`
	RecordedAt time.Time `db:"recorded_at"`
}
