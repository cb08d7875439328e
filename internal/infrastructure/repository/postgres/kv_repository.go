package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/kvstore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	qb "github.com/riskibarqy/dota-team-tracker/internal/platform/querybuilder"
)

const (
	listenerMinReconnect = time.Second
	listenerMaxReconnect = 30 * time.Second
)

// KVRepository stores values in kv_entries and fans out change
// notifications through LISTEN/NOTIFY.
type KVRepository struct {
	db     *sqlx.DB
	dsn    string
	origin string
	logger *logging.Logger
	now    func() time.Time
}

func NewKVRepository(db *sqlx.DB, dsn, origin string, logger *logging.Logger) *KVRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &KVRepository{
		db:     db,
		dsn:    dsn,
		origin: origin,
		logger: logger.Named("kv_repository"),
		now:    time.Now,
	}
}

func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := qb.Select("key", "value", "origin", "updated_at").
		From("kv_entries").
		Where(qb.Eq("key", key)).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build select kv entry query: %w", err)
	}

	var row kvEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select kv entry key=%s: %w", key, err)
	}
	return row.Value, true, nil
}

func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := qb.InsertModels("kv_entries", []kvEntryTableModel{{
		Key:       key,
		Value:     value,
		Origin:    r.origin,
		UpdatedAt: r.now().UTC(),
	}}, "ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at")
	if err != nil {
		return fmt.Errorf("build upsert kv entry query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert kv entry: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert kv entry key=%s: %w", key, err)
	}
	if err := r.notify(ctx, tx, kvNotification{Key: key, Origin: r.origin}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert kv entry: %w", err)
	}
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	query, args, err := qb.DeleteFrom("kv_entries").Where(qb.Eq("key", key)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete kv entry query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx delete kv entry: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete kv entry key=%s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows delete kv entry: %w", err)
	}
	if affected > 0 {
		if err := r.notify(ctx, tx, kvNotification{Key: key, Origin: r.origin, Removed: true}); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete kv entry: %w", err)
	}
	return nil
}

// notify runs inside the write transaction so listeners only hear about
// committed rows.
func (r *KVRepository) notify(ctx context.Context, tx *sqlx.Tx, n kvNotification) error {
	payload, err := encodeNotification(n)
	if err != nil {
		return fmt.Errorf("encode kv notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", kvChangesChannel, payload); err != nil {
		return fmt.Errorf("notify kv change key=%s: %w", n.Key, err)
	}
	return nil
}

// Watch listens on kv_entries_changed. After a reconnect a change with no
// origin is emitted so the caller re-reads whatever it may have missed.
func (r *KVRepository) Watch(ctx context.Context, key string) (<-chan kvstore.Change, error) {
	listener := pq.NewListener(r.dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Warn("kv listener event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(kvChangesChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", kvChangesChannel, err)
	}

	out := make(chan kvstore.Change, 1)
	go func() {
		defer close(out)
		defer func() {
			_ = listener.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				change, ok := r.toChange(key, n)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *KVRepository) toChange(key string, n *pq.Notification) (kvstore.Change, bool) {
	if n == nil {
		return kvstore.Change{Key: key}, true
	}
	payload, err := decodeNotification(n.Extra)
	if err != nil {
		r.logger.Warn("invalid kv notification payload", "payload", n.Extra, "error", err)
		return kvstore.Change{}, false
	}
	if payload.Key != key || payload.Origin == r.origin {
		return kvstore.Change{}, false
	}
	return kvstore.Change{Key: payload.Key, Removed: payload.Removed, Origin: payload.Origin}, true
}
