package postgres

import "time"

type kvEntryTableModel struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	Origin    string    `db:"origin"`
	UpdatedAt time.Time `db:"updated_at"`
}
