package queue

import (
	"context"
	"sync"
)

type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Handle is the caller's view of an enqueued job.
type Handle struct {
	key        string
	resourceID string
	done       chan struct{}

	mu       sync.Mutex
	state    State
	err      error
	attempts int
}

func newHandle(key, resourceID string) *Handle {
	return &Handle{
		key:        key,
		resourceID: resourceID,
		done:       make(chan struct{}),
		state:      StateQueued,
	}
}

func (h *Handle) Key() string        { return h.key }
func (h *Handle) ResourceID() string { return h.resourceID }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err is the settlement error; nil while pending or on success.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job settles or ctx ends. Giving up does not cancel
// the job.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) setState(state State) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}

func (h *Handle) addAttempt() {
	h.mu.Lock()
	h.attempts++
	h.mu.Unlock()
}

func (h *Handle) settle(state State, err error) {
	h.mu.Lock()
	if h.state == StateSucceeded || h.state == StateFailed {
		h.mu.Unlock()
		return
	}
	h.state = state
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
