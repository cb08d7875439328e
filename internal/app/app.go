package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/dota-team-tracker/external/discovery"
	"github.com/riskibarqy/dota-team-tracker/external/enrichment"
	"github.com/riskibarqy/dota-team-tracker/external/provider"
	"github.com/riskibarqy/dota-team-tracker/internal/config"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/dota-team-tracker/internal/persistence"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/cache"
	idgen "github.com/riskibarqy/dota-team-tracker/internal/platform/id"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
)

// App owns every long-lived component of one execution context.
type App struct {
	Server *http.Server
	Origin string

	logger       *logging.Logger
	storage      storage
	queue        *queue.Queue
	orchestrator *usecase.Orchestrator
	sync         *persistence.Sync
	stats        *usecase.StatsService
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	origin, err := idgen.NewUUIDGenerator().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate origin: %w", err)
	}
	logger = logger.With("origin", origin)

	store, err := openStorage(cfg, origin, logger)
	if err != nil {
		return nil, err
	}

	q, err := queue.New(queue.Config{
		Workers:      cfg.QueueWorkers,
		JobRetries:   cfg.QueueJobRetries,
		RetryBackoff: cfg.QueueRetryBackoff,
		Logger:       logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create request queue: %w", err)
	}

	discoveryClient := discovery.NewClient(discovery.ClientConfig{
		BaseURL:         cfg.Discovery.BaseURL,
		Timeout:         cfg.Discovery.Timeout,
		PollInterval:    cfg.Discovery.PollInterval,
		PollMaxAttempts: cfg.Discovery.PollMaxAttempts,
		Logger:          logger,
		CircuitBreaker:  cfg.Discovery.Circuit,
		Observer:        pollObserver(logger),
	})
	enrichmentClient := enrichment.NewClient(enrichment.ClientConfig{
		BaseURL:        cfg.Enrichment.BaseURL,
		APIKey:         cfg.Enrichment.APIKey,
		Timeout:        cfg.Enrichment.Timeout,
		Logger:         logger,
		CircuitBreaker: cfg.Enrichment.Circuit,
	})

	entities := entitystore.New(origin, logger)
	notifications := usecase.NewNotificationFeed(cfg.NotificationCapacity, cfg.NotificationTTL)
	orchestrator, err := usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Store:          entities,
		Queue:          q,
		Cache:          cache.NewStore(cfg.CacheTTL),
		Discovery:      discoveryClient,
		Enrichment:     enrichmentClient,
		History:        store.history,
		Notifications:  notifications,
		LeagueTTL:      cfg.CacheLeagueTTL,
		HistoryTimeout: cfg.HistoryTimeout,
		Logger:         logger,
	})
	if err != nil {
		q.Close()
		_ = store.Close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	stats := usecase.NewStatsService(q, cfg.QueueStatsInterval, logger)
	handler := httpapi.NewHandler(
		usecase.NewTeamService(orchestrator),
		usecase.NewMatchService(orchestrator),
		usecase.NewPlayerService(orchestrator),
		stats,
		notifications,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Origin:       origin,
		logger:       logger,
		storage:      store,
		queue:        q,
		orchestrator: orchestrator,
		sync: persistence.New(entities, store.kv, persistence.Config{
			Key:      cfg.StorageKey,
			Debounce: cfg.PersistDebounce,
			Logger:   logger,
		}),
		stats: stats,
	}, nil
}

// Start hydrates the entity store and begins background sampling. The
// HTTP server is started by the caller.
func (a *App) Start(ctx context.Context) error {
	if err := a.sync.Start(ctx); err != nil {
		return fmt.Errorf("start persistence sync: %w", err)
	}
	if err := a.stats.Start(); err != nil {
		return fmt.Errorf("start queue stats: %w", err)
	}
	return nil
}

// Shutdown stops intake first, then cancels queued work, then flushes the
// final snapshot.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}

	a.queue.Close()
	a.orchestrator.Close()

	if err := a.stats.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("shutdown queue stats: %w", err))
	}
	if err := a.sync.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close persistence sync: %w", err))
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	a.logger.Info("app stopped")
	return errors.Join(errs...)
}

func pollObserver(logger *logging.Logger) func(provider.Transition) {
	logger = logger.Named("poller")
	return func(t provider.Transition) {
		switch t.State {
		case provider.StateFailed, provider.StateTimedOut:
			logger.Warn("provider poll settled",
				"provider", t.Provider,
				"op", t.Op,
				"state", string(t.State),
				"attempt", t.Attempt,
				"status", t.Status,
			)
		default:
			logger.Debug("provider poll transition",
				"provider", t.Provider,
				"op", t.Op,
				"state", string(t.State),
				"attempt", t.Attempt,
			)
		}
	}
}
