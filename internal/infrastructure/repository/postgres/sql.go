package postgres

import (
	"database/sql"
	"errors"

	"github.com/bytedance/sonic"
)

const kvChangesChannel = "kv_entries_changed"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// kvNotification is the pg_notify payload. Values are not carried because
// NOTIFY payloads are capped at 8000 bytes; listeners re-read the row.
type kvNotification struct {
	Key     string `json:"key"`
	Origin  string `json:"origin"`
	Removed bool   `json:"removed,omitempty"`
}

func encodeNotification(n kvNotification) (string, error) {
	return sonic.ConfigStd.MarshalToString(n)
}

func decodeNotification(payload string) (kvNotification, error) {
	var n kvNotification
	err := sonic.ConfigStd.UnmarshalFromString(payload, &n)
	return n, err
}
