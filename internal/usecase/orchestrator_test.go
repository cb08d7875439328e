package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	historymock "github.com/riskibarqy/dota-team-tracker/internal/mocks/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	waitTimeout = 2 * time.Second
	waitTick    = 5 * time.Millisecond
)

type harness struct {
	queue      *queue.Queue
	store      *entitystore.Store
	discovery  *MockDiscoveryProvider
	enrichment *MockEnrichmentProvider
	notes      *NotificationFeed
	teams      *TeamService
	matches    *MatchService
	players    *PlayerService
}

func newHarness(t *testing.T, historyRepo history.Repository) *harness {
	t.Helper()
	return newHarnessWithLogger(t, historyRepo, nil)
}

func newHarnessWithLogger(t *testing.T, historyRepo history.Repository, logger *logging.Logger) *harness {
	t.Helper()

	discovery := NewMockDiscoveryProvider(t)
	enrichment := NewMockEnrichmentProvider(t)

	q, err := queue.New(queue.Config{Workers: 4, RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	store := entitystore.New("test", nil)
	notes := NewNotificationFeed(10, time.Minute)
	o, err := NewOrchestrator(OrchestratorConfig{
		Store:         store,
		Queue:         q,
		Cache:         cache.NewStore(time.Minute),
		Discovery:     discovery,
		Enrichment:    enrichment,
		History:       historyRepo,
		Notifications: notes,
		Logger:        logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		q.Close()
		o.Close()
	})

	return &harness{
		queue:      q,
		store:      store,
		discovery:  discovery,
		enrichment: enrichment,
		notes:      notes,
		teams:      NewTeamService(o),
		matches:    NewMatchService(o),
		players:    NewPlayerService(o),
	}
}

func (h *harness) team(t *testing.T, key string) team.Team {
	t.Helper()
	got, ok := h.store.Team(key)
	if !ok {
		t.Fatalf("team %s missing", key)
	}
	return got
}

func (h *harness) eventually(t *testing.T, cond func(team.Team) bool, key string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, ok := h.store.Team(key)
		return ok && cond(got)
	}, waitTimeout, waitTick)
}

// idle waits until every lane drained and each queued merge has landed.
func (h *harness) idle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.queue.Snapshot()) == 0 }, waitTimeout, waitTick)
}

func settled(t team.Team) bool {
	if t.Loading {
		return false
	}
	for _, m := range t.Matches {
		if m.Loading {
			return false
		}
	}
	for _, r := range t.Roster {
		if r.Loading {
			return false
		}
	}
	return true
}

func enriched(t team.Team) bool {
	if !settled(t) {
		return false
	}
	for _, m := range t.Matches {
		if m.Detail == nil {
			return false
		}
	}
	return true
}

func TestTeamService_ImportTeam_PlaceholderThenMerge(t *testing.T) {
	persisted := make(chan []match.Match, 1)
	historyRepo := historymock.NewRepository(t)
	historyRepo.
		On("PersistMatchHistory", mock.Anything, "9517508-16435", mock.Anything).
		Run(func(args mock.Arguments) { persisted <- args.Get(2).([]match.Match) }).
		Return(nil).
		Once()

	h := newHarness(t, historyRepo)
	key := "9517508-16435"

	h.discovery.
		On("DiscoverTeam", mock.Anything, "9517508", "16435").
		Return(TeamDiscovery{
			TeamName: "Crows",
			MatchIDs: []string{"7001", "7002"},
			Roster:   []DiscoveredMember{{AccountID: "86745912", Name: "carry"}},
		}, nil).
		Once()
	h.discovery.On("ResolveLeague", mock.Anything, "16435").Return("Amateur Cup", nil).Once()
	h.enrichment.
		On("EnrichMatch", mock.Anything, "7001", "9517508").
		Return(match.Detail{DurationSeconds: 1800, Won: true, OpponentName: "Ravens"}, nil).
		Once()
	h.enrichment.
		On("EnrichMatch", mock.Anything, "7002", "9517508").
		Return(match.Detail{}, NewProviderHardError("provider-b", "enrich match", 500, nil)).
		Once()
	h.enrichment.
		On("FetchPlayer", mock.Anything, "86745912").
		Return(player.Profile{Name: "carry", Wins: 3, Losses: 1}, nil).
		Once()

	var first atomic.Pointer[team.Team]
	unsubscribe := h.store.Subscribe(func(c entitystore.Change) {
		if _, ok := c.Event.(entitystore.TeamImportStarted); !ok {
			return
		}
		if got, ok := c.State.Team(key); ok {
			first.CompareAndSwap(nil, &got)
		}
	})
	defer unsubscribe()

	got, err := h.teams.ImportTeam(context.Background(), "9517508", "16435")
	if err != nil {
		t.Fatalf("import team: %v", err)
	}
	if got.ID != key {
		t.Fatalf("unexpected team key: %s", got.ID)
	}

	placeholder := first.Load()
	if placeholder == nil {
		t.Fatalf("expected placeholder to be published synchronously")
	}
	if placeholder.Name != "9517508" || placeholder.LeagueName != "16435" || !placeholder.Loading {
		t.Fatalf("unexpected placeholder: %+v", *placeholder)
	}

	h.eventually(t, func(tm team.Team) bool {
		return settled(tm) && tm.LeagueName == "Amateur Cup" && len(tm.Matches) == 2
	}, key)

	final := h.team(t, key)
	if final.Name != "Crows" {
		t.Fatalf("expected discovered team name, got=%s", final.Name)
	}
	if final.Matches[0].ID != "7001" || final.Matches[0].Detail == nil || !final.Matches[0].Detail.Won {
		t.Fatalf("unexpected enriched match: %+v", final.Matches[0])
	}
	// one failed match marks only its own row
	if final.Matches[1].Error != "provider-b failed with status 500" || final.Matches[1].Detail != nil {
		t.Fatalf("unexpected failed match: %+v", final.Matches[1])
	}
	if final.Error != "" {
		t.Fatalf("team must stay healthy when one match fails, got=%q", final.Error)
	}

	require.Eventually(t, func() bool {
		p, ok := h.store.Player("86745912")
		return ok && !p.Loading && p.Wins == 3
	}, waitTimeout, waitTick)

	select {
	case matches := <-persisted:
		if n := len(history.Enriched(matches)); n != 1 {
			t.Fatalf("expected one enriched match written back, got=%d", n)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("match history was not written back")
	}

	notes := h.notes.List(0)
	if len(notes) != 1 || notes[0].Resource != "match:7002" || notes[0].Level != NotificationError {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestTeamService_ImportTeam_HealthyTeamUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.store.Dispatch(entitystore.TeamImportStarted{TeamID: "1", LeagueID: "2"}))
	require.NoError(t, h.store.Dispatch(entitystore.TeamSettled{TeamKey: "1-2"}))
	rev := h.team(t, "1-2").Rev

	got, err := h.teams.ImportTeam(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("import existing team: %v", err)
	}
	if got.Rev != rev || got.Loading {
		t.Fatalf("expected existing team untouched, got=%+v", got)
	}
}

func TestTeamService_ImportTeam_FailureSetsError(t *testing.T) {
	h := newHarness(t, nil)
	h.discovery.
		On("DiscoverTeam", mock.Anything, "1", "2").
		Return(TeamDiscovery{}, NewProviderTimeout("provider-a", "team match discovery", 20)).
		Once()

	if _, err := h.teams.ImportTeam(context.Background(), "1", "2"); err != nil {
		t.Fatalf("import team: %v", err)
	}
	h.eventually(t, func(tm team.Team) bool { return !tm.Loading }, "1-2")

	got := h.team(t, "1-2")
	if got.Error != "provider-a did not finish in time" {
		t.Fatalf("unexpected team error: %q", got.Error)
	}
}

func TestTeamService_ImportTeam_RejectsInvalidIDs(t *testing.T) {
	h := newHarness(t, nil)

	if _, err := h.teams.ImportTeam(context.Background(), "abc", "16435"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
	if n := len(h.store.Teams()); n != 0 {
		t.Fatalf("invalid import must not create a team, got=%d", n)
	}
}

func TestMatchService_DiscoveryNeverOverwritesManualMatch(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan time.Time)

	h.discovery.
		On("DiscoverTeam", mock.Anything, "1", "2").
		WaitUntil(release).
		Return(TeamDiscovery{TeamName: "Crows", MatchIDs: []string{"100", "200"}}, nil).
		Once()
	h.discovery.On("ResolveLeague", mock.Anything, "2").Return("Cup", nil).Once()
	h.enrichment.
		On("EnrichMatch", mock.Anything, "100", "1").
		Return(match.Detail{OpponentName: "Ravens"}, nil).
		Once()
	h.enrichment.
		On("EnrichMatch", mock.Anything, "200", "1").
		Return(match.Detail{OpponentName: "Owls"}, nil).
		Once()

	_, err := h.teams.ImportTeam(context.Background(), "1", "2")
	require.NoError(t, err)

	if _, err := h.matches.AddManualMatch(context.Background(), "1-2", "100"); err != nil {
		t.Fatalf("add manual match: %v", err)
	}
	close(release)

	h.eventually(t, func(tm team.Team) bool { return enriched(tm) && len(tm.Matches) == 2 }, "1-2")

	got := h.team(t, "1-2")
	if !slices.Equal(got.MatchIDs(), []string{"100", "200"}) {
		t.Fatalf("unexpected match order: %v", got.MatchIDs())
	}
	if !got.Matches[0].Manual || got.Matches[0].Detail == nil || got.Matches[0].Detail.OpponentName != "Ravens" {
		t.Fatalf("manual match lost or overwritten: %+v", got.Matches[0])
	}
	if got.Matches[1].Manual {
		t.Fatalf("discovered match must not be manual: %+v", got.Matches[1])
	}
}

func seedTeam(t *testing.T, h *harness, teamID, leagueID string, matchIDs ...string) string {
	t.Helper()
	key := team.Key(teamID, leagueID)
	require.NoError(t, h.store.Dispatch(entitystore.TeamImportStarted{TeamID: teamID, LeagueID: leagueID}))
	require.NoError(t, h.store.Dispatch(entitystore.TeamDiscovered{TeamKey: key, TeamName: "Crows", MatchIDs: matchIDs}))
	require.NoError(t, h.store.Dispatch(entitystore.TeamSettled{TeamKey: key}))
	return key
}

func seedManualMatch(t *testing.T, h *harness, key, matchID string) {
	t.Helper()
	require.NoError(t, h.store.Dispatch(entitystore.ManualMatchAdded{TeamKey: key, MatchID: matchID}))
	require.NoError(t, h.store.Dispatch(entitystore.MatchEnriched{TeamKey: key, MatchID: matchID, Detail: match.Detail{DurationSeconds: 60}}))
}

func TestMatchService_EditManualMatch_ExactlyOneIDVisible(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantIDs []string
	}{
		{name: "swapped", wantIDs: []string{"200"}},
		{name: "rolled back", err: NewProviderHardError("provider-b", "enrich match", 404, nil), wantIDs: []string{"100"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, nil)
			key := seedTeam(t, h, "1", "2")
			seedManualMatch(t, h, key, "100")

			var mu sync.Mutex
			var violations []string
			unsubscribe := h.store.Subscribe(func(c entitystore.Change) {
				got, ok := c.State.Team(key)
				if !ok {
					return
				}
				ids := got.MatchIDs()
				if len(ids) != 1 || (ids[0] != "100" && ids[0] != "200") {
					mu.Lock()
					violations = append(violations, c.Event.Name())
					mu.Unlock()
				}
			})
			defer unsubscribe()

			h.enrichment.
				On("EnrichMatch", mock.Anything, "200", "1").
				Return(match.Detail{OpponentName: "Owls"}, tc.err).
				Once()

			pending, err := h.matches.EditManualMatch(context.Background(), key, "100", "200")
			if err != nil {
				t.Fatalf("edit manual match: %v", err)
			}
			if pending.ID != "100" || pending.PendingID != "200" || !pending.Loading {
				t.Fatalf("expected old entry kept while loading, got=%+v", pending)
			}

			h.eventually(t, func(tm team.Team) bool { return settled(tm) }, key)

			got := h.team(t, key)
			if !slices.Equal(got.MatchIDs(), tc.wantIDs) {
				t.Fatalf("unexpected ids: %v want=%v", got.MatchIDs(), tc.wantIDs)
			}
			if !got.Matches[0].Manual {
				t.Fatalf("edited match must stay manual: %+v", got.Matches[0])
			}
			if tc.err != nil && got.Matches[0].Error == "" {
				t.Fatalf("rollback should surface the error: %+v", got.Matches[0])
			}

			mu.Lock()
			defer mu.Unlock()
			if len(violations) > 0 {
				t.Fatalf("observed states without exactly one id: %v", violations)
			}
		})
	}
}

func TestMatchService_EditManualMatch_Validation(t *testing.T) {
	h := newHarness(t, nil)
	key := seedTeam(t, h, "1", "2", "300")
	seedManualMatch(t, h, key, "100")

	cases := []struct {
		name         string
		oldID, newID string
		want         error
	}{
		{name: "duplicate id", oldID: "100", newID: "300", want: ErrInvalidInput},
		{name: "discovered match", oldID: "300", newID: "400", want: ErrInvalidInput},
		{name: "unknown match", oldID: "999", newID: "400", want: ErrNotFound},
		{name: "malformed id", oldID: "100", newID: "x1", want: ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := h.matches.EditManualMatch(context.Background(), key, tc.oldID, tc.newID); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got=%v", tc.name, tc.want, err)
		}
	}
	if _, err := h.matches.EditManualMatch(context.Background(), "5-6", "100", "400"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown team: expected ErrNotFound, got=%v", err)
	}
}

func TestTeamService_ForceRefreshTeam_ClearsThenRepopulates(t *testing.T) {
	h := newHarness(t, nil)
	key := seedTeam(t, h, "1", "2", "100", "101")
	seedManualMatch(t, h, key, "900")

	h.discovery.
		On("DiscoverTeam", mock.Anything, "1", "2").
		Return(TeamDiscovery{TeamName: "Crows", MatchIDs: []string{"102"}}, nil).
		Once()
	h.discovery.On("ResolveLeague", mock.Anything, "2").Return("Cup", nil).Once()
	h.enrichment.
		On("EnrichMatch", mock.Anything, mock.Anything, "1").
		Return(func(_ context.Context, matchID, _ string) (match.Detail, error) {
			return match.Detail{OpponentName: "vs-" + matchID}, nil
		})

	var cleared atomic.Pointer[[]string]
	unsubscribe := h.store.Subscribe(func(c entitystore.Change) {
		if _, ok := c.Event.(entitystore.NonManualCleared); !ok {
			return
		}
		got, _ := c.State.Team(key)
		ids := got.MatchIDs()
		cleared.Store(&ids)
	})
	defer unsubscribe()

	if _, err := h.teams.ForceRefreshTeam(context.Background(), key); err != nil {
		t.Fatalf("force refresh: %v", err)
	}

	ids := cleared.Load()
	if ids == nil || !slices.Equal(*ids, []string{"900"}) {
		t.Fatalf("expected only manual matches after clearing, got=%v", ids)
	}

	h.eventually(t, func(tm team.Team) bool { return enriched(tm) && len(tm.Matches) == 2 }, key)
	got := h.team(t, key)
	if !slices.Equal(got.MatchIDs(), []string{"900", "102"}) {
		t.Fatalf("unexpected repopulated matches: %v", got.MatchIDs())
	}
	if got.Matches[0].Detail == nil || got.Matches[0].Detail.OpponentName != "vs-900" {
		t.Fatalf("manual match should be re-enriched: %+v", got.Matches[0])
	}
}

func TestMatchService_RemoveAndHide(t *testing.T) {
	h := newHarness(t, nil)
	key := seedTeam(t, h, "1", "2", "100")
	seedManualMatch(t, h, key, "900")

	if err := h.matches.RemoveManualMatch(context.Background(), key, "100"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("discovered match removal: expected ErrInvalidInput, got=%v", err)
	}
	if err := h.matches.HideMatch(context.Background(), key, "100"); err != nil {
		t.Fatalf("hide match: %v", err)
	}
	if err := h.matches.RemoveManualMatch(context.Background(), key, "900"); err != nil {
		t.Fatalf("remove manual match: %v", err)
	}

	got := h.team(t, key)
	if len(got.Matches) != 0 || !got.IsHidden("100") {
		t.Fatalf("unexpected team after remove/hide: %+v", got)
	}
	if err := h.matches.HideMatch(context.Background(), key, "100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("hiding twice: expected ErrNotFound, got=%v", err)
	}
}

func TestPlayerService_ManualPlayerLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	key := seedTeam(t, h, "1", "2")

	h.enrichment.
		On("FetchPlayer", mock.Anything, "111").
		Return(player.Profile{Name: "standin"}, nil).
		Once()
	h.enrichment.
		On("FetchPlayer", mock.Anything, "222").
		Return(player.Profile{Name: "replacement", Wins: 7}, nil).
		Once()

	entry, err := h.players.AddManualPlayer(context.Background(), key, "111")
	if err != nil {
		t.Fatalf("add manual player: %v", err)
	}
	if !entry.Manual || !entry.Loading {
		t.Fatalf("expected loading manual entry, got=%+v", entry)
	}
	h.eventually(t, settled, key)

	if _, err := h.players.AddManualPlayer(context.Background(), key, "111"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate player: expected ErrInvalidInput, got=%v", err)
	}

	if _, err := h.players.EditManualPlayer(context.Background(), key, "111", "222"); err != nil {
		t.Fatalf("edit manual player: %v", err)
	}
	h.eventually(t, func(tm team.Team) bool { return settled(tm) && tm.HasAccount("222") }, key)

	p, err := h.players.GetPlayer(context.Background(), "222")
	if err != nil || p.Wins != 7 {
		t.Fatalf("unexpected swapped player: %+v err=%v", p, err)
	}

	if err := h.players.RemoveManualPlayer(context.Background(), key, "222"); err != nil {
		t.Fatalf("remove manual player: %v", err)
	}
	if got := h.team(t, key); len(got.Roster) != 0 {
		t.Fatalf("expected empty roster, got=%+v", got.Roster)
	}
	// players are global and survive detaching
	if _, err := h.players.GetPlayer(context.Background(), "222"); err != nil {
		t.Fatalf("player should be kept after removal: %v", err)
	}
}

func TestPlayerService_RefreshPlayerBypassesCache(t *testing.T) {
	h := newHarness(t, nil)
	key := seedTeam(t, h, "1", "2")

	h.enrichment.
		On("FetchPlayer", mock.Anything, "111").
		Return(player.Profile{Name: "standin", Wins: 1}, nil).
		Once()
	h.enrichment.
		On("FetchPlayer", mock.Anything, "111").
		Return(player.Profile{Name: "standin", Wins: 2}, nil).
		Once()

	_, err := h.players.AddManualPlayer(context.Background(), key, "111")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		p, ok := h.store.Player("111")
		return ok && !p.Loading && p.Wins == 1
	}, waitTimeout, waitTick)
	h.idle(t)

	if _, err := h.players.RefreshPlayer(context.Background(), "111"); err != nil {
		t.Fatalf("refresh player: %v", err)
	}
	require.Eventually(t, func() bool {
		p, ok := h.store.Player("111")
		return ok && !p.Loading && p.Wins == 2
	}, waitTimeout, waitTick)
	h.idle(t)

	if _, err := h.players.RefreshPlayer(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown player: expected ErrNotFound, got=%v", err)
	}
}

func TestTeamService_SearchAndRemove(t *testing.T) {
	h := newHarness(t, nil)
	seedTeam(t, h, "1", "2")
	require.NoError(t, h.store.Dispatch(entitystore.TeamImportStarted{TeamID: "3", LeagueID: "4"}))
	require.NoError(t, h.store.Dispatch(entitystore.TeamDiscovered{TeamKey: "3-4", TeamName: "Night Owls"}))

	got := h.teams.SearchTeams(context.Background(), "owl", 0)
	if len(got) != 1 || got[0].ID != "3-4" {
		t.Fatalf("unexpected search result: %+v", got)
	}
	if all := h.teams.SearchTeams(context.Background(), "", 1); len(all) != 1 {
		t.Fatalf("empty query should list teams up to limit, got=%d", len(all))
	}

	if err := h.teams.RemoveTeam(context.Background(), "3-4"); err != nil {
		t.Fatalf("remove team: %v", err)
	}
	if err := h.teams.RemoveTeam(context.Background(), "3-4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second removal: expected ErrNotFound, got=%v", err)
	}
	if _, err := h.teams.GetTeam(context.Background(), "not-a-key"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed key: expected ErrInvalidInput, got=%v", err)
	}
}
