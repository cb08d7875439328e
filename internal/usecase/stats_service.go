package usecase

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
)

const DefaultStatsInterval = time.Second

// QueueStats is a display-only sample of the request queue.
type QueueStats struct {
	SampledAt time.Time              `json:"sampled_at"`
	Keys      map[string]queue.Stats `json:"keys"`
	Providers map[string]queue.Stats `json:"providers"`
}

type statsSource interface {
	Snapshot() map[string]queue.Stats
}

// StatsService samples queue stats on a fixed cadence so readers never
// touch the queue locks.
type StatsService struct {
	source    statsSource
	interval  time.Duration
	logger    *logging.Logger
	now       func() time.Time
	latest    atomic.Pointer[QueueStats]
	scheduler gocron.Scheduler
}

func NewStatsService(source statsSource, interval time.Duration, logger *logging.Logger) *StatsService {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsService{
		source:   source,
		interval: interval,
		logger:   logger.Named("queue_stats"),
		now:      time.Now,
	}
}

func (s *StatsService) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create stats scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.sample() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule stats sampler: %w", err)
	}
	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("queue stats sampler started", "interval", s.interval.String())
	return nil
}

func (s *StatsService) Shutdown() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// QueueStats returns the latest sample, sampling now if none exists yet.
func (s *StatsService) QueueStats() QueueStats {
	if latest := s.latest.Load(); latest != nil {
		return *latest
	}
	return s.sample()
}

func (s *StatsService) sample() QueueStats {
	keys := s.source.Snapshot()
	providers := make(map[string]queue.Stats, 2)
	for key, st := range keys {
		name := providerOf(key)
		agg := providers[name]
		agg.Length += st.Length
		agg.Processing = agg.Processing || st.Processing
		providers[name] = agg
	}

	out := QueueStats{SampledAt: s.now().UTC(), Keys: keys, Providers: providers}
	s.latest.Store(&out)
	return out
}

// providerOf maps "provider-b:<team>" to "provider-b".
func providerOf(queueKey string) string {
	name, _, _ := strings.Cut(queueKey, ":")
	return name
}
