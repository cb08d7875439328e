package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/team"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	queueKeyDiscovery     = "provider-a"
	queueKeyPlayers       = "provider-b:players"
	enrichmentQueuePrefix = "provider-b:"

	DefaultLeagueTTL      = 24 * time.Hour
	DefaultHistoryTimeout = 10 * time.Second
)

func enrichmentQueueKey(teamKey string) string {
	return enrichmentQueuePrefix + teamKey
}

type OrchestratorConfig struct {
	Store          *entitystore.Store
	Queue          *queue.Queue
	Cache          *cache.Store
	Discovery      DiscoveryProvider
	Enrichment     EnrichmentProvider
	History        history.Repository
	Notifications  *NotificationFeed
	LeagueTTL      time.Duration
	HistoryTimeout time.Duration
	Logger         *logging.Logger
}

// Orchestrator turns user operations into queued provider work and merges
// the settled results back into the entity store.
type Orchestrator struct {
	store          *entitystore.Store
	queue          *queue.Queue
	cache          *cache.Store
	discovery      DiscoveryProvider
	enrichment     EnrichmentProvider
	history        history.Repository
	notifications  *NotificationFeed
	leagueTTL      time.Duration
	historyTimeout time.Duration
	logger         *logging.Logger

	mu       sync.Mutex
	watching map[*queue.Handle]struct{}
	forced   map[string]struct{}
	watchers conc.WaitGroup
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("orchestrator: entity store is required")
	case cfg.Queue == nil:
		return nil, fmt.Errorf("orchestrator: request queue is required")
	case cfg.Discovery == nil:
		return nil, fmt.Errorf("orchestrator: discovery provider is required")
	case cfg.Enrichment == nil:
		return nil, fmt.Errorf("orchestrator: enrichment provider is required")
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewStore(cache.DefaultTTL)
	}
	if cfg.Notifications == nil {
		cfg.Notifications = NewNotificationFeed(0, 0)
	}
	if cfg.LeagueTTL <= 0 {
		cfg.LeagueTTL = DefaultLeagueTTL
	}
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = DefaultHistoryTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Orchestrator{
		store:          cfg.Store,
		queue:          cfg.Queue,
		cache:          cfg.Cache,
		discovery:      cfg.Discovery,
		enrichment:     cfg.Enrichment,
		history:        cfg.History,
		notifications:  cfg.Notifications,
		leagueTTL:      cfg.LeagueTTL,
		historyTimeout: cfg.HistoryTimeout,
		logger:         logger.Named("orchestrator"),
		watching:       make(map[*queue.Handle]struct{}),
		forced:         make(map[string]struct{}),
	}, nil
}

// Close waits for settlement callbacks. Close the queue first so pending
// handles settle.
func (o *Orchestrator) Close() {
	o.watchers.Wait()
}

func (o *Orchestrator) team(key string) (team.Team, error) {
	if _, _, err := team.ParseKey(key); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	t, ok := o.store.Team(key)
	if !ok {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, key)
	}
	return t, nil
}

// enqueue schedules fn and calls onSettled once per distinct handle. A job
// already running for the resource may have read state older than this
// call, so fn runs again behind it.
func (o *Orchestrator) enqueue(key, resourceID string, fn queue.JobFunc, onSettled func(error)) *queue.Handle {
	h := o.queue.Requeue(key, resourceID, fn)

	o.mu.Lock()
	if _, ok := o.watching[h]; ok {
		o.mu.Unlock()
		return h
	}
	o.watching[h] = struct{}{}
	o.mu.Unlock()

	o.watchers.Go(func() {
		<-h.Done()
		o.mu.Lock()
		delete(o.watching, h)
		o.mu.Unlock()
		if onSettled != nil {
			onSettled(h.Err())
		}
	})
	return h
}

// apply dispatches a background merge. Vanished targets are dropped
// silently.
func (o *Orchestrator) apply(ctx context.Context, e entitystore.Event) bool {
	err := o.store.Dispatch(e)
	if err == nil {
		return true
	}
	if !entitystore.IsNoop(err) {
		o.logger.WarnContext(ctx, "merge rejected", "event", e.Name(), "error", err)
	}
	return false
}

func (o *Orchestrator) notifyFailure(teamKey, resource string, err error) {
	o.notifications.Push(Notification{
		Level:    NotificationError,
		Message:  userMessage(err),
		TeamKey:  teamKey,
		Resource: resource,
	})
}

// scheduleDiscovery queues discovery for the team. A force request folded
// into a queued discovery is picked up by whichever job starts next.
func (o *Orchestrator) scheduleDiscovery(ctx context.Context, teamKey string, force bool) *queue.Handle {
	if force {
		o.mu.Lock()
		o.forced[teamKey] = struct{}{}
		o.mu.Unlock()
	}

	caller := trace.SpanContextFromContext(ctx)
	return o.enqueue(queueKeyDiscovery, "team:"+teamKey, func(jobCtx context.Context) error {
		return o.discoverTeam(withCaller(jobCtx, caller), teamKey, o.takeForce(teamKey))
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("team discovery failed", "team_key", teamKey, "error", err)
		o.apply(context.Background(), entitystore.TeamSettled{TeamKey: teamKey, Error: userMessage(err)})
		o.notifyFailure(teamKey, "team:"+teamKey, err)
	})
}

func (o *Orchestrator) takeForce(teamKey string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.forced[teamKey]
	delete(o.forced, teamKey)
	return ok
}

func (o *Orchestrator) discoverTeam(ctx context.Context, teamKey string, force bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.discoverTeam")
	defer span.End()
	if span.IsRecording() {
		span.SetAttributes(attribute.String("team.key", teamKey), attribute.Bool("force", force))
	}

	t, ok := o.store.Team(teamKey)
	if !ok {
		o.logger.DebugContext(ctx, "team vanished before discovery", "team_key", teamKey)
		return nil
	}

	found, err := o.discovery.DiscoverTeam(ctx, t.TeamID, t.LeagueID)
	if err != nil {
		return err
	}

	roster := make([]entitystore.DiscoveredPlayer, 0, len(found.Roster))
	for _, m := range found.Roster {
		roster = append(roster, entitystore.DiscoveredPlayer{AccountID: m.AccountID, Name: m.Name})
	}
	if !o.apply(ctx, entitystore.TeamDiscovered{
		TeamKey:  teamKey,
		TeamName: found.TeamName,
		MatchIDs: found.MatchIDs,
		Roster:   roster,
	}) {
		return nil
	}
	o.apply(ctx, entitystore.TeamSettled{TeamKey: teamKey})

	o.logger.InfoContext(ctx, "team discovered",
		"team_key", teamKey,
		"matches", len(found.MatchIDs),
		"roster", len(found.Roster),
	)

	o.scheduleLeague(ctx, t.LeagueID)
	o.scheduleEnrichment(ctx, teamKey, force)
	o.scheduleRoster(ctx, teamKey)
	return nil
}

func (o *Orchestrator) scheduleLeague(ctx context.Context, leagueID string) {
	if v, ok := o.cache.Get(cache.ResourceLeague, leagueID); ok {
		if name, ok := v.(string); ok {
			o.resolveLeagueTeams(ctx, leagueID, name)
			return
		}
	}

	caller := trace.SpanContextFromContext(ctx)
	o.enqueue(queueKeyDiscovery, "league:"+leagueID, func(jobCtx context.Context) error {
		jobCtx = withCaller(jobCtx, caller)
		v, err := o.cache.GetOrLoad(jobCtx, cache.ResourceLeague, leagueID, func(ctx context.Context) (any, error) {
			return o.discovery.ResolveLeague(ctx, leagueID)
		}, o.leagueTTL)
		if err != nil {
			return err
		}
		name, _ := v.(string)
		o.resolveLeagueTeams(jobCtx, leagueID, name)
		return nil
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("league resolve failed", "league_id", leagueID, "error", err)
		o.notifyFailure("", "league:"+leagueID, err)
	})
}

func (o *Orchestrator) resolveLeagueTeams(ctx context.Context, leagueID, name string) {
	for _, t := range o.store.Teams() {
		if t.LeagueID != leagueID || t.LeagueName == name {
			continue
		}
		o.apply(ctx, entitystore.LeagueResolved{TeamKey: t.ID, LeagueName: name})
	}
}

// scheduleEnrichment queues matches without detail or with an error; all
// re-enriches every settled match.
func (o *Orchestrator) scheduleEnrichment(ctx context.Context, teamKey string, all bool) {
	t, ok := o.store.Team(teamKey)
	if !ok {
		return
	}
	ids := make([]string, 0, len(t.Matches))
	for _, m := range t.Matches {
		if m.PendingID != "" {
			continue
		}
		if all || m.NeedsEnrichment() {
			ids = append(ids, m.ID)
		}
	}
	o.enrichMatches(ctx, t, ids)
}

// enrichMatches queues one job per match on the team's lane and writes the
// batch to history once every job settled.
func (o *Orchestrator) enrichMatches(ctx context.Context, t team.Team, matchIDs []string) {
	if len(matchIDs) == 0 {
		return
	}
	handles := make([]*queue.Handle, 0, len(matchIDs))
	for _, id := range matchIDs {
		handles = append(handles, o.enrichMatch(ctx, t, id))
	}
	if o.history == nil {
		return
	}

	caller := trace.SpanContextFromContext(ctx)
	o.watchers.Go(func() {
		for _, h := range handles {
			<-h.Done()
		}
		o.persistMatchHistory(withCaller(context.Background(), caller), t.ID)
	})
}

func (o *Orchestrator) enrichMatch(ctx context.Context, t team.Team, matchID string) *queue.Handle {
	teamKey, teamID := t.ID, t.TeamID
	o.apply(ctx, entitystore.MatchEnrichmentStarted{TeamKey: teamKey, MatchID: matchID})

	caller := trace.SpanContextFromContext(ctx)
	return o.enqueue(enrichmentQueueKey(teamKey), matchID, func(jobCtx context.Context) error {
		jobCtx = withCaller(jobCtx, caller)
		if current, ok := o.store.Team(teamKey); !ok || current.MatchIndex(matchID) < 0 {
			return nil
		}
		detail, err := o.loadMatch(jobCtx, teamKey, teamID, matchID)
		if err != nil {
			return err
		}
		o.apply(jobCtx, entitystore.MatchEnriched{TeamKey: teamKey, MatchID: matchID, Detail: detail})
		return nil
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("match enrichment failed", "team_key", teamKey, "match_id", matchID, "error", err)
		o.apply(context.Background(), entitystore.MatchEnrichmentFailed{TeamKey: teamKey, MatchID: matchID, Error: userMessage(err)})
		o.notifyFailure(teamKey, "match:"+matchID, err)
	})
}

func (o *Orchestrator) loadMatch(ctx context.Context, teamKey, teamID, matchID string) (match.Detail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.loadMatch")
	defer span.End()

	v, err := o.cache.GetOrLoad(ctx, cache.ResourceMatch, cache.MatchID(teamKey, matchID), func(ctx context.Context) (any, error) {
		return o.enrichment.EnrichMatch(ctx, matchID, teamID)
	})
	if err != nil {
		return match.Detail{}, err
	}
	detail, ok := v.(match.Detail)
	if !ok {
		return match.Detail{}, fmt.Errorf("cached match %s has type %T", matchID, v)
	}
	return detail, nil
}

func (o *Orchestrator) swapMatch(ctx context.Context, t team.Team, oldID, newID string) *queue.Handle {
	teamKey, teamID := t.ID, t.TeamID
	caller := trace.SpanContextFromContext(ctx)
	return o.enqueue(enrichmentQueueKey(teamKey), "edit:"+newID, func(jobCtx context.Context) error {
		jobCtx = withCaller(jobCtx, caller)
		detail, err := o.loadMatch(jobCtx, teamKey, teamID, newID)
		if err != nil {
			return err
		}
		o.apply(jobCtx, entitystore.MatchSwapped{TeamKey: teamKey, OldID: oldID, NewID: newID, Detail: &detail})
		return nil
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("match edit rolled back", "team_key", teamKey, "old_id", oldID, "new_id", newID, "error", err)
		o.apply(context.Background(), entitystore.MatchSwapRolledBack{
			TeamKey: teamKey,
			OldID:   oldID,
			NewID:   newID,
			Error:   userMessage(err),
		})
		o.notifyFailure(teamKey, "match:"+newID, err)
	})
}

func (o *Orchestrator) persistMatchHistory(ctx context.Context, teamKey string) {
	t, ok := o.store.Team(teamKey)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, o.historyTimeout)
	defer cancel()

	if err := o.history.PersistMatchHistory(ctx, teamKey, t.Matches); err != nil {
		o.logger.WarnContext(ctx, "persist match history failed", "team_key", teamKey, "error", err)
	}
}

// scheduleRoster refreshes every roster player without an edit in flight.
func (o *Orchestrator) scheduleRoster(ctx context.Context, teamKey string) {
	t, ok := o.store.Team(teamKey)
	if !ok {
		return
	}
	for _, entry := range t.Roster {
		if entry.PendingID != "" {
			continue
		}
		o.fetchPlayer(ctx, entry.AccountID)
	}
}

func (o *Orchestrator) fetchPlayer(ctx context.Context, accountID string) *queue.Handle {
	o.apply(ctx, entitystore.PlayerFetchStarted{AccountID: accountID})

	caller := trace.SpanContextFromContext(ctx)
	return o.enqueue(queueKeyPlayers, accountID, func(jobCtx context.Context) error {
		jobCtx = withCaller(jobCtx, caller)
		profile, err := o.loadPlayer(jobCtx, accountID)
		if err != nil {
			return err
		}
		o.apply(jobCtx, entitystore.PlayerFetched{AccountID: accountID, Profile: profile})
		return nil
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("player fetch failed", "account_id", accountID, "error", err)
		o.apply(context.Background(), entitystore.PlayerFetchFailed{AccountID: accountID, Error: userMessage(err)})
		o.notifyFailure("", "player:"+accountID, err)
	})
}

func (o *Orchestrator) loadPlayer(ctx context.Context, accountID string) (player.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.loadPlayer")
	defer span.End()

	v, err := o.cache.GetOrLoad(ctx, cache.ResourcePlayer, accountID, func(ctx context.Context) (any, error) {
		return o.enrichment.FetchPlayer(ctx, accountID)
	})
	if err != nil {
		return player.Profile{}, err
	}
	profile, ok := v.(player.Profile)
	if !ok {
		return player.Profile{}, fmt.Errorf("cached player %s has type %T", accountID, v)
	}
	return profile, nil
}

func (o *Orchestrator) swapPlayer(ctx context.Context, teamKey, oldID, newID string) *queue.Handle {
	caller := trace.SpanContextFromContext(ctx)
	return o.enqueue(queueKeyPlayers, "edit:"+teamKey+":"+newID, func(jobCtx context.Context) error {
		jobCtx = withCaller(jobCtx, caller)
		profile, err := o.loadPlayer(jobCtx, newID)
		if err != nil {
			return err
		}
		o.apply(jobCtx, entitystore.RosterSwapped{TeamKey: teamKey, OldID: oldID, NewID: newID, Profile: profile})
		return nil
	}, func(err error) {
		if err == nil {
			return
		}
		o.logger.Warn("roster edit rolled back", "team_key", teamKey, "old_id", oldID, "new_id", newID, "error", err)
		o.apply(context.Background(), entitystore.RosterSwapRolledBack{
			TeamKey: teamKey,
			OldID:   oldID,
			NewID:   newID,
			Error:   userMessage(err),
		})
		o.notifyFailure(teamKey, "player:"+newID, err)
	})
}

// invalidateTeam drops every cache entry derived from t.
func (o *Orchestrator) invalidateTeam(t team.Team) {
	o.cache.InvalidatePrefix(cache.ResourceMatch, t.ID+"/")
	o.cache.Invalidate(cache.ResourceLeague, t.LeagueID)
	for _, id := range t.AccountIDs() {
		o.cache.Invalidate(cache.ResourcePlayer, id)
	}
}
