package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/stretchr/testify/require"
)

type fakeStatsSource struct {
	stats map[string]queue.Stats
}

func (f fakeStatsSource) Snapshot() map[string]queue.Stats {
	return f.stats
}

func TestStatsService_AggregatesPerProvider(t *testing.T) {
	svc := NewStatsService(fakeStatsSource{stats: map[string]queue.Stats{
		"provider-a":         {Length: 2, Processing: true},
		"provider-b:1-2":     {Length: 3},
		"provider-b:3-4":     {Length: 1, Processing: true},
		"provider-b:players": {Length: 4},
	}}, time.Hour, nil)
	fixed := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	got := svc.QueueStats()
	if !got.SampledAt.Equal(fixed) {
		t.Fatalf("unexpected sample time: %s", got.SampledAt)
	}
	if a := got.Providers["provider-a"]; a.Length != 2 || !a.Processing {
		t.Fatalf("unexpected provider-a stats: %+v", a)
	}
	if b := got.Providers["provider-b"]; b.Length != 8 || !b.Processing {
		t.Fatalf("unexpected provider-b stats: %+v", b)
	}
	if len(got.Keys) != 4 {
		t.Fatalf("expected per-key stats kept, got=%d", len(got.Keys))
	}
}

func TestStatsService_StartSamplesImmediately(t *testing.T) {
	svc := NewStatsService(fakeStatsSource{stats: map[string]queue.Stats{
		"provider-a": {Length: 1},
	}}, time.Hour, nil)
	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Shutdown() })

	require.Eventually(t, func() bool { return svc.latest.Load() != nil }, 2*time.Second, 5*time.Millisecond)
	if got := svc.QueueStats().Providers["provider-a"].Length; got != 1 {
		t.Fatalf("unexpected sampled length: %d", got)
	}
}
