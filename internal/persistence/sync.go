package persistence

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/kvstore"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
)

const (
	DefaultKey      = "dota-team-tracker/state"
	DefaultDebounce = 250 * time.Millisecond

	writeTimeout = 10 * time.Second
)

type Config struct {
	Key      string
	Debounce time.Duration
	Logger   *logging.Logger
}

// Sync mirrors the entity store into a shared key/value store and merges
// snapshots written by other execution contexts.
type Sync struct {
	store    *entitystore.Store
	repo     kvstore.Repository
	key      string
	debounce time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	pending []byte
	timer   *time.Timer
	closed  bool

	writeMu sync.Mutex

	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(store *entitystore.Store, repo kvstore.Repository, cfg Config) *Sync {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Sync{
		store:    store,
		repo:     repo,
		key:      cfg.Key,
		debounce: cfg.Debounce,
		logger:   logger.Named("persistence").With("storage_key", cfg.Key),
	}
}

// Start hydrates the store from storage, then follows local mutations and
// remote writes until Close.
func (s *Sync) Start(ctx context.Context) error {
	if s.store == nil || s.repo == nil {
		return crerr.New("persistence sync requires a store and a repository")
	}

	if err := s.load(ctx); err != nil {
		s.logger.WarnContext(ctx, "load snapshot failed, starting empty", "error", err)
	}

	s.unsubscribe = s.store.Subscribe(s.onChange)

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	changes, err := s.repo.Watch(watchCtx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "watch storage failed, remote changes will be missed", "error", err)
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.follow(watchCtx, changes)
	}()
	return nil
}

func (s *Sync) load(ctx context.Context) error {
	data, ok, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "read snapshot"), ErrPersistence)
	}
	if !ok {
		return nil
	}
	snap, err := Decode(data)
	if err != nil {
		return err
	}
	s.store.Hydrate(entitystore.FromSnapshot(snap))
	s.logger.InfoContext(ctx, "snapshot hydrated", "teams", len(snap.Teams), "players", len(snap.Players))
	return nil
}

func (s *Sync) onChange(change entitystore.Change) {
	if !change.Local {
		return
	}
	data, err := Encode(change.State.Snapshot())
	if err != nil {
		s.logger.Error("serialise snapshot failed", "event", change.Event.Name(), "error", err)
		return
	}
	s.schedule(data)
}

// schedule keeps only the newest snapshot; the first one arms the timer.
func (s *Sync) schedule(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = data
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushPending)
	}
}

func (s *Sync) takePending() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	data := s.pending
	s.pending = nil
	return data
}

func (s *Sync) flushPending() {
	data := s.takePending()
	if data == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.write(ctx, data); err != nil {
		s.logger.Error("persist snapshot failed", "error", err)
	}
}

func (s *Sync) write(ctx context.Context, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Set(ctx, s.key, data); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "write snapshot bytes=%d", len(data)), ErrPersistence)
	}
	return nil
}

// Flush writes any pending snapshot now.
func (s *Sync) Flush(ctx context.Context) error {
	data := s.takePending()
	if data == nil {
		return nil
	}
	return s.write(ctx, data)
}

func (s *Sync) follow(ctx context.Context, changes <-chan kvstore.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Removed {
				s.logger.Debug("remote removed snapshot, ignoring", "origin", change.Origin)
				continue
			}
			if err := s.pullRemote(ctx); err != nil {
				s.logger.WarnContext(ctx, "merge remote snapshot failed", "origin", change.Origin, "error", err)
			}
		}
	}
}

func (s *Sync) pullRemote(ctx context.Context) error {
	data, ok, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "re-read snapshot"), ErrPersistence)
	}
	if !ok {
		return nil
	}
	snap, err := Decode(data)
	if err != nil {
		return err
	}

	if !s.store.Reconcile(entitystore.FromSnapshot(snap)) {
		return nil
	}
	merged, err := Encode(s.store.Snapshot().Snapshot())
	if err != nil {
		return err
	}
	s.logger.Debug("merged snapshot diverged, writing back")
	s.schedule(merged)
	return nil
}

// Close stops following changes and flushes the last pending write.
func (s *Sync) Close(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	err := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}
