package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/kvstore"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	kvstore.Repository

	mu     sync.Mutex
	writes [][]byte
	setErr error
}

func (r *recordingRepo) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	r.writes = append(r.writes, value)
	err := r.setErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.Repository.Set(ctx, key, value)
}

func (r *recordingRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func TestSync_DebouncedWriteKeepsLatest(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{Repository: memory.NewKVBus().Repository("ctx-a")}
	store := entitystore.New("ctx-a", nil)

	s := New(store, repo, Config{Key: "state", Debounce: time.Hour})
	require.NoError(t, s.Start(ctx))
	defer s.Close(ctx)

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, store.Dispatch(entitystore.TeamImportStarted{TeamID: id, LeagueID: "9"}))
	}
	if n := repo.writeCount(); n != 0 {
		t.Fatalf("expected no write before debounce, got=%d", n)
	}

	require.NoError(t, s.Flush(ctx))
	if n := repo.writeCount(); n != 1 {
		t.Fatalf("expected one coalesced write, got=%d", n)
	}

	snap, err := Decode(repo.writes[0])
	require.NoError(t, err)
	if snap.Clock != 3 || len(snap.Teams) != 3 {
		t.Fatalf("expected latest snapshot, got clock=%d teams=%d", snap.Clock, len(snap.Teams))
	}
}

func TestSync_WriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{
		Repository: memory.NewKVBus().Repository("ctx-a"),
		setErr:     errors.New("disk full"),
	}
	store := entitystore.New("ctx-a", nil)

	s := New(store, repo, Config{Key: "state", Debounce: time.Hour})
	require.NoError(t, s.Start(ctx))

	if err := store.Dispatch(entitystore.TeamImportStarted{TeamID: "9517508", LeagueID: "16435"}); err != nil {
		t.Fatalf("dispatch must not see storage errors: %v", err)
	}
	if _, ok := store.Team("9517508-16435"); !ok {
		t.Fatalf("expected in-memory state to keep the placeholder")
	}

	err := s.Close(ctx)
	if !crerr.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from flush, got=%v", err)
	}
}

func TestSync_StartMarksInterruptedImports(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewKVBus().Repository("ctx-a")

	seed, err := Encode(entitystore.Snapshot{
		Version: entitystore.SnapshotVersion,
		Clock:   4,
		Teams: []team.Team{
			{ID: "1-2", TeamID: "1", LeagueID: "2", Name: "1", LeagueName: "2", Loading: true, Rev: 4, Origin: "old"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "state", seed))

	store := entitystore.New("ctx-b", nil)
	s := New(store, repo, Config{Key: "state"})
	require.NoError(t, s.Start(ctx))
	defer s.Close(ctx)

	got, ok := store.Team("1-2")
	if !ok {
		t.Fatalf("expected hydrated team")
	}
	if got.Loading || got.Error != "import interrupted" {
		t.Fatalf("unexpected hydrated team: %+v", got)
	}
	if store.Snapshot().Clock() < 4 {
		t.Fatalf("clock should advance to stored revisions, got=%d", store.Snapshot().Clock())
	}
}

func TestSync_ContextsConverge(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewKVBus()

	storeA := entitystore.New("ctx-a", nil)
	syncA := New(storeA, bus.Repository("ctx-a"), Config{Key: "state"})
	require.NoError(t, syncA.Start(ctx))
	defer syncA.Close(ctx)

	storeB := entitystore.New("ctx-b", nil)
	syncB := New(storeB, bus.Repository("ctx-b"), Config{Key: "state"})
	require.NoError(t, syncB.Start(ctx))
	defer syncB.Close(ctx)

	require.NoError(t, storeA.Dispatch(entitystore.TeamImportStarted{TeamID: "1", LeagueID: "2"}))
	require.Eventually(t, func() bool {
		_, ok := storeB.Team("1-2")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, storeB.Dispatch(entitystore.TeamImportStarted{TeamID: "3", LeagueID: "4"}))
	require.Eventually(t, func() bool {
		_, ok := storeA.Team("3-4")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, storeA.Dispatch(entitystore.TeamRemoved{TeamKey: "1-2"}))
	require.Eventually(t, func() bool {
		_, ok := storeB.Team("1-2")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	if _, ok := storeA.Team("1-2"); ok {
		t.Fatalf("removed team came back in the writing context")
	}
	if len(storeA.Teams()) != 1 || len(storeB.Teams()) != 1 {
		t.Fatalf("contexts did not converge: a=%d b=%d", len(storeA.Teams()), len(storeB.Teams()))
	}
}
