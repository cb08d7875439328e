package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), ResourceMatch, MatchID("9517508-16435", "7000000001"), loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("provider down")
		}
		return "league name", nil
	}

	if _, err := store.GetOrLoad(context.Background(), ResourceLeague, "16435", loader); err == nil {
		t.Fatalf("expected first load to fail")
	}
	v, err := store.GetOrLoad(context.Background(), ResourceLeague, "16435", loader)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if v != "league name" {
		t.Fatalf("unexpected value: %v", v)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Put(ResourcePlayer, "86745912", "profile")
	store.Put(ResourceLeague, "16435", "league", time.Hour)

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(ResourcePlayer, "86745912"); ok {
		t.Fatalf("expected player entry to expire with default ttl")
	}
	if _, ok := store.Get(ResourceLeague, "16435"); !ok {
		t.Fatalf("expected league entry to honour explicit ttl")
	}
}

func TestStore_InvalidateIsScoped(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.Put(ResourceMatch, MatchID("1-2", "100"), "a")
	store.Put(ResourceMatch, MatchID("1-2", "101"), "b")
	store.Put(ResourceMatch, MatchID("1-22", "100"), "c")
	store.Put(ResourceLeague, "2", "league")

	store.Invalidate(ResourceMatch, MatchID("1-2", "100"))
	if _, ok := store.Get(ResourceMatch, MatchID("1-2", "100")); ok {
		t.Fatalf("expected invalidated key to miss")
	}
	if _, ok := store.Get(ResourceMatch, MatchID("1-2", "101")); !ok {
		t.Fatalf("sibling key must survive single invalidation")
	}

	if removed := store.InvalidatePrefix(ResourceMatch, "1-2/"); removed != 1 {
		t.Fatalf("expected one key removed by team prefix, got=%d", removed)
	}
	if _, ok := store.Get(ResourceMatch, MatchID("1-22", "100")); !ok {
		t.Fatalf("other team's key must survive prefix invalidation")
	}
	if _, ok := store.Get(ResourceLeague, "2"); !ok {
		t.Fatalf("other resource types must survive prefix invalidation")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_InvalidateDuringLoadDropsStaleResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		invalidate func(*Store)
	}{
		{name: "single key", invalidate: func(s *Store) { s.Invalidate(ResourcePlayer, "86745912") }},
		{name: "prefix", invalidate: func(s *Store) { s.InvalidatePrefix(ResourcePlayer, "8674") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewStore(time.Minute)
			started := make(chan struct{})
			release := make(chan struct{})
			staleDone := make(chan any, 1)

			go func() {
				v, _ := store.GetOrLoad(context.Background(), ResourcePlayer, "86745912", func(context.Context) (any, error) {
					close(started)
					<-release
					return "stale", nil
				})
				staleDone <- v
			}()
			<-started

			tc.invalidate(store)

			v, err := store.GetOrLoad(context.Background(), ResourcePlayer, "86745912", func(context.Context) (any, error) {
				return "fresh", nil
			})
			if err != nil {
				t.Fatalf("reload after invalidate: %v", err)
			}
			if v != "fresh" {
				t.Fatalf("reload after invalidate joined the old load: got=%v", v)
			}

			close(release)
			select {
			case old := <-staleDone:
				if old != "stale" {
					t.Fatalf("first caller should still get its own load, got=%v", old)
				}
			case <-time.After(time.Second):
				t.Fatalf("stale load did not return")
			}

			cached, ok := store.Get(ResourcePlayer, "86745912")
			if !ok || cached != "fresh" {
				t.Fatalf("stale load must not overwrite the fresh entry, got=%v ok=%v", cached, ok)
			}
		})
	}
}
