package entitystore

import (
	"sync"
	"sync/atomic"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
)

// Change is published to subscribers after every applied mutation. Local is
// false for state that arrived from storage.
type Change struct {
	Event Event
	Seq   uint64
	State State
	Local bool
}

type Subscriber func(Change)

type subscription struct {
	id uint64
	fn Subscriber
}

// Store is the single source of truth for teams, matches and players.
// Mutations are serialised; subscribers run synchronously in mutation order
// and must not dispatch.
type Store struct {
	origin string
	logger *logging.Logger

	mu      sync.Mutex
	seq     uint64
	subs    []subscription
	nextSub uint64

	current atomic.Pointer[State]
}

func New(origin string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{origin: origin, logger: logger.Named("entitystore")}
	empty := EmptyState()
	s.current.Store(&empty)
	return s
}

func (s *Store) Origin() string { return s.origin }

// Snapshot returns the current state without blocking on writers.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Dispatch applies e under the next Lamport revision. No-op results
// (ErrTargetMissing, ErrUnchanged) are returned but publish nothing.
func (s *Store) Dispatch(e Event) error {
	if e == nil {
		return crerr.New("event is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := *s.current.Load()
	meta := Meta{Rev: prev.clock + 1, Origin: s.origin}
	next, err := e.Apply(prev, meta)
	if err != nil {
		if IsNoop(err) {
			s.logger.Debug("event skipped", "event", e.Name(), "reason", err)
		}
		return err
	}
	next = next.withClock(meta.Rev)
	s.publish(e, next, true)
	return nil
}

// Hydrate replaces state with a snapshot loaded at startup.
func (s *Store) Hydrate(loaded State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := settleTransient(loaded)
	next = next.withClock(s.current.Load().clock)
	s.publish(Hydrated{}, next, false)
}

// Reconcile merges a snapshot written by another execution context and
// reports whether the merge kept something remote lacks.
func (s *Store) Reconcile(remote State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, diverged := Reconcile(*s.current.Load(), remote)
	s.publish(Reconciled{Diverged: diverged}, merged, false)
	return diverged
}

func (s *Store) publish(e Event, next State, local bool) {
	s.current.Store(&next)
	s.seq++
	change := Change{Event: e, Seq: s.seq, State: next, Local: local}
	for _, sub := range s.subs {
		sub.fn(change)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) Teams() []team.Team {
	return s.Snapshot().Teams()
}

func (s *Store) Team(key string) (team.Team, bool) {
	return s.Snapshot().Team(key)
}

func (s *Store) Matches(teamKey string) ([]match.Match, bool) {
	t, ok := s.Team(teamKey)
	if !ok {
		return nil, false
	}
	return t.Matches, true
}

func (s *Store) Players() []player.Player {
	return s.Snapshot().Players()
}

func (s *Store) Player(accountID string) (player.Player, bool) {
	return s.Snapshot().Player(accountID)
}
