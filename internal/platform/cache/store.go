package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ResourceType namespaces cached provider payloads.
type ResourceType string

const (
	ResourceLeague ResourceType = "league"
	ResourceMatch  ResourceType = "match"
	ResourcePlayer ResourceType = "player"
)

const DefaultTTL = 10 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process cache keyed by (resource type, resource id).
// Invalidation is explicit; TTL only bounds staleness. Every invalidation
// bumps the key's generation, so a load started before it neither serves
// later callers nor writes its result back.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	gens    map[string]uint64
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func Key(kind ResourceType, id string) string {
	return string(kind) + ":" + id
}

// MatchID builds the team-scoped id used for ResourceMatch entries.
func MatchID(teamKey, matchID string) string {
	return teamKey + "/" + matchID
}

func (s *Store) Get(kind ResourceType, id string) (any, bool) {
	if id == "" {
		return nil, false
	}

	key := Key(kind, id)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Put stores value. An explicit ttl overrides the store default; a
// non-positive effective ttl keeps the entry until invalidated.
func (s *Store) Put(kind ResourceType, id string, value any, ttl ...time.Duration) {
	if id == "" {
		return
	}

	e := s.newEntry(value, ttl)
	s.mu.Lock()
	s.entries[Key(kind, id)] = e
	s.mu.Unlock()
}

func (s *Store) newEntry(value any, ttl []time.Duration) entry {
	effective := s.ttl
	if len(ttl) > 0 {
		effective = ttl[0]
	}
	expiresAt := time.Time{}
	if effective > 0 {
		expiresAt = s.now().Add(effective)
	}
	return entry{value: value, expiresAt: expiresAt}
}

// putLoaded stores a loader result unless key was invalidated since gen.
func (s *Store) putLoaded(key string, gen uint64, value any, ttl []time.Duration) {
	e := s.newEntry(value, ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return
	}
	s.entries[key] = e
}

// generation registers key so prefix invalidation can reach in-flight loads.
func (s *Store) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[key]
	if !ok {
		s.gens[key] = 0
	}
	return gen
}

func (s *Store) Invalidate(kind ResourceType, id string) {
	if id == "" {
		return
	}

	key := Key(kind, id)
	s.mu.Lock()
	delete(s.entries, key)
	s.gens[key]++
	s.mu.Unlock()
}

// InvalidatePrefix drops every entry of kind whose id starts with idPrefix.
func (s *Store) InvalidatePrefix(kind ResourceType, idPrefix string) int {
	if idPrefix == "" {
		return 0
	}

	prefix := Key(kind, idPrefix)
	removed := 0
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	for key := range s.gens {
		if strings.HasPrefix(key, prefix) {
			s.gens[key]++
		}
	}
	s.mu.Unlock()
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetOrLoad returns the cached value or runs loader once per key, sharing
// the result with concurrent callers. Loader errors are not cached.
func (s *Store) GetOrLoad(ctx context.Context, kind ResourceType, id string, loader func(context.Context) (any, error), ttl ...time.Duration) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if id == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(kind, id); ok {
		return value, nil
	}

	key := Key(kind, id)
	gen := s.generation(key)
	value, err, _ := s.flight.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		if cached, ok := s.Get(kind, id); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.putLoaded(key, gen, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
