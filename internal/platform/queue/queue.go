package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
)

const (
	defaultWorkers      = 8
	defaultRetryBackoff = time.Second
)

// JobFunc is one unit of provider work. The context is the queue lifetime,
// not the enqueuer's request.
type JobFunc func(ctx context.Context) error

type Config struct {
	Workers      int
	JobRetries   int
	RetryBackoff time.Duration
	Logger       *logging.Logger
}

// Stats is a non-blocking view of one key. Length excludes the running job.
type Stats struct {
	Length     int  `json:"length"`
	Processing bool `json:"processing"`
}

type job struct {
	handle *Handle
	fn     JobFunc
}

type lane struct {
	key     string
	pending []*job
	running *job
	active  map[string]*Handle
}

// Queue runs at most one job per key at a time, in FIFO order per key.
// Different keys progress independently on a shared worker pool.
type Queue struct {
	ctx    context.Context
	cancel context.CancelFunc

	pool         *ants.Pool
	retries      int
	retryBackoff time.Duration
	logger       *logging.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) (*Queue, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create queue worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		ctx:          ctx,
		cancel:       cancel,
		pool:         pool,
		retries:      max(cfg.JobRetries, 0),
		retryBackoff: backoff,
		logger:       logger.Named("queue"),
		lanes:        make(map[string]*lane),
		sleep:        sleepContext,
	}, nil
}

// Enqueue appends fn to the lane for key. While a job with the same
// (key, resourceID) is queued or running, the existing handle is returned
// and fn is dropped.
func (q *Queue) Enqueue(key, resourceID string, fn JobFunc) *Handle {
	return q.enqueue(key, resourceID, fn, false)
}

// Requeue is Enqueue for requests that must see state written before the
// call. A queued duplicate still absorbs the request. A running one does
// not: fn is queued behind it and later duplicates join the new handle.
func (q *Queue) Requeue(key, resourceID string, fn JobFunc) *Handle {
	return q.enqueue(key, resourceID, fn, true)
}

func (q *Queue) enqueue(key, resourceID string, fn JobFunc, afterRunning bool) *Handle {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		h := newHandle(key, resourceID)
		h.settle(StateFailed, ErrQueueClosed)
		return h
	}
	if fn == nil {
		q.mu.Unlock()
		h := newHandle(key, resourceID)
		h.settle(StateFailed, crerr.New("job function is required"))
		return h
	}

	l, ok := q.lanes[key]
	if !ok {
		l = &lane{key: key, active: make(map[string]*Handle)}
		q.lanes[key] = l
	}
	if existing, ok := l.active[resourceID]; ok {
		running := l.running != nil && l.running.handle == existing
		if !afterRunning || !running {
			q.mu.Unlock()
			return existing
		}
	}

	h := newHandle(key, resourceID)
	l.active[resourceID] = h
	l.pending = append(l.pending, &job{handle: h, fn: fn})
	startLane := l.running == nil
	if startLane {
		l.running = l.pending[0]
		l.pending = l.pending[1:]
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if startLane {
		go q.schedule(l)
	}
	return h
}

// schedule hands the lane to the pool. Submission runs off the caller's
// goroutine so Enqueue never waits for a free worker.
func (q *Queue) schedule(l *lane) {
	err := q.pool.Submit(func() {
		defer q.wg.Done()
		q.drain(l)
	})
	if err != nil {
		q.logger.Error("submit lane to worker pool", "queue_key", l.key, "error", err)
		q.failLane(l, crerr.Wrap(err, "submit lane"))
		q.wg.Done()
	}
}

// drain runs the lane until it is empty. A job is settled before the next
// one for the same key starts.
func (q *Queue) drain(l *lane) {
	q.mu.Lock()
	current := l.running
	q.mu.Unlock()

	for current != nil {
		current.handle.setState(StateRunning)
		err := q.runWithRetry(current)

		q.mu.Lock()
		if l.active[current.handle.resourceID] == current.handle {
			delete(l.active, current.handle.resourceID)
		}
		q.mu.Unlock()

		if err != nil {
			current.handle.settle(StateFailed, err)
		} else {
			current.handle.settle(StateSucceeded, nil)
		}

		q.mu.Lock()
		var next *job
		if len(l.pending) > 0 {
			next = l.pending[0]
			l.pending = l.pending[1:]
		} else if q.lanes[l.key] == l {
			delete(q.lanes, l.key)
		}
		l.running = next
		q.mu.Unlock()
		current = next
	}
}

func (q *Queue) runWithRetry(j *job) error {
	var err error
	for attempt := 0; ; attempt++ {
		j.handle.addAttempt()
		err = q.runOnce(j)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt >= q.retries {
			break
		}

		backoff := time.Duration(attempt+1) * q.retryBackoff
		q.logger.Warn("retrying transient job failure",
			"queue_key", j.handle.key,
			"resource_id", j.handle.resourceID,
			"attempt", attempt+1,
			"backoff", backoff.String(),
			"error", err,
		)
		if sleepErr := q.sleep(q.ctx, backoff); sleepErr != nil {
			return fmt.Errorf("%w: retry aborted: %v", ErrQueueClosed, err)
		}
	}

	q.logger.Warn("job failed",
		"queue_key", j.handle.key,
		"resource_id", j.handle.resourceID,
		"attempts", j.handle.Attempts(),
		"error", err,
	)
	return err
}

func (q *Queue) runOnce(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = crerr.Newf("job panicked: %v", r)
		}
	}()
	return j.fn(q.ctx)
}

func (q *Queue) failLane(l *lane, cause error) {
	q.mu.Lock()
	jobs := make([]*job, 0, len(l.pending)+1)
	if l.running != nil {
		jobs = append(jobs, l.running)
	}
	jobs = append(jobs, l.pending...)
	l.running = nil
	l.pending = nil
	l.active = make(map[string]*Handle)
	if q.lanes[l.key] == l {
		delete(q.lanes, l.key)
	}
	q.mu.Unlock()

	for _, j := range jobs {
		j.handle.settle(StateFailed, cause)
	}
}

func (q *Queue) Stats(key string) Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.lanes[key]
	if !ok {
		return Stats{}
	}
	return Stats{Length: len(l.pending), Processing: l.running != nil}
}

// Snapshot returns stats for every key that currently has work.
func (q *Queue) Snapshot() map[string]Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[string]Stats, len(q.lanes))
	for key, l := range q.lanes {
		out[key] = Stats{Length: len(l.pending), Processing: l.running != nil}
	}
	return out
}

// Keys lists the keys with work, sorted.
func (q *Queue) Keys() []string {
	q.mu.Lock()
	keys := make([]string, 0, len(q.lanes))
	for key := range q.lanes {
		keys = append(keys, key)
	}
	q.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Close stops accepting work, fails queued jobs with ErrQueueClosed and
// waits for running jobs before releasing the pool.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := make([]*job, 0)
	for _, l := range q.lanes {
		dropped = append(dropped, l.pending...)
		for _, j := range l.pending {
			delete(l.active, j.handle.resourceID)
		}
		l.pending = nil
	}
	q.mu.Unlock()

	for _, j := range dropped {
		j.handle.settle(StateFailed, ErrQueueClosed)
	}

	q.cancel()
	q.wg.Wait()
	q.pool.Release()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
