package entitystore

import crerr "github.com/cockroachdb/errors"

var (
	// ErrTargetMissing means the entity an event refers to no longer exists.
	// Background merges treat it as a silent no-op.
	ErrTargetMissing = crerr.New("merge target missing")
	// ErrUnchanged means the event would not alter state; nothing is published.
	ErrUnchanged = crerr.New("state unchanged")

	ErrDuplicateID  = crerr.New("id already present in team")
	ErrNotManual    = crerr.New("entity is not manual")
	ErrEditInFlight = crerr.New("an edit is already in flight")
)

// IsNoop reports errors that leave state untouched without being a failure.
func IsNoop(err error) bool {
	return crerr.Is(err, ErrTargetMissing) || crerr.Is(err, ErrUnchanged)
}

func missing(kind, id string) error {
	return crerr.Wrapf(ErrTargetMissing, "%s %s", kind, id)
}
